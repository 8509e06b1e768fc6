package instances

import (
	"context"
	"fmt"
	"time"

	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/collector/clients"
	"github.com/viralmux/viralmux/model"
	Logger "github.com/viralmux/viralmux/utils/log"
)

const microblogPermalinkFormat = "https://twitter.com/%s/status/%s"

// MicroblogAdapter searches the microblog platform through its official API
// and falls over to scraping mirror frontends when the API is unreachable.
// The mirror client is nil when no mirrors are configured.
type MicroblogAdapter struct {
	api      *clients.MicroblogClient
	mirror   *clients.MirrorClient
	pageSize int
}

func NewMicroblogAdapter(bearerToken string, mirrors []string, pageSize int) *MicroblogAdapter {
	adapter := &MicroblogAdapter{
		api:      clients.NewMicroblogClient(bearerToken),
		pageSize: pageSize,
	}
	if len(mirrors) > 0 {
		adapter.mirror = clients.NewMirrorClient(mirrors)
	}
	return adapter
}

func (a *MicroblogAdapter) Platform() string {
	return model.PlatformMicroblog
}

// MirrorFailoverEnabled reports whether a mirror client backs the api.
func (a *MicroblogAdapter) MirrorFailoverEnabled() bool {
	return a.mirror != nil
}

func (a *MicroblogAdapter) Search(ctx context.Context, query model.SearchQuery) ([]model.RawItem, error) {
	res, err := a.api.SearchRecent(ctx, query.Query, a.pageSize)
	if err == nil {
		return searchResponseToRawItems(res), nil
	}

	if a.mirror == nil {
		return nil, classifyHttpError(model.PlatformMicroblog, "search", err)
	}

	Logger.Log.Warnf("microblog api search failed, falling back to mirrors: %v", err)
	tweets, mirrorErr := a.mirror.SearchFeed(ctx, query.Query, a.pageSize)
	if mirrorErr != nil {
		return nil, collector.NewTransientError(model.PlatformMicroblog, "search",
			fmt.Errorf("api: %v, mirrors: %v", err, mirrorErr))
	}
	return mirrorTweetsToRawItems(tweets), nil
}

func (a *MicroblogAdapter) FetchThread(ctx context.Context, conversationId string, authorHandle string, limit int) ([]model.RawItem, error) {
	res, err := a.api.SearchConversation(ctx, conversationId, authorHandle, limit)
	if err == nil {
		return searchResponseToRawItems(res), nil
	}

	if a.mirror == nil {
		return nil, classifyHttpError(model.PlatformMicroblog, "fetch_thread", err)
	}

	Logger.Log.Warnf("microblog api thread fetch failed, falling back to mirrors: %v", err)
	tweets, mirrorErr := a.mirror.FetchConversation(ctx, authorHandle, conversationId)
	if mirrorErr != nil {
		return nil, collector.NewTransientError(model.PlatformMicroblog, "fetch_thread",
			fmt.Errorf("api: %v, mirrors: %v", err, mirrorErr))
	}

	// The mirror page contains the whole conversation, keep only the
	// author's own items.
	items := []model.RawItem{}
	for _, tweet := range tweets {
		if tweet.Username != authorHandle {
			continue
		}
		if len(items) >= limit {
			break
		}
		item := mirrorTweetToRawItem(tweet)
		item.ConversationId = conversationId
		items = append(items, item)
	}
	return items, nil
}

// FetchComments returns other participants' replies in the item's
// conversation, scored by like count.
func (a *MicroblogAdapter) FetchComments(ctx context.Context, itemId string, limit int) ([]model.RawComment, error) {
	query := fmt.Sprintf("conversation_id:%s", itemId)
	res, err := a.api.SearchRecent(ctx, query, limit)
	if err != nil {
		return nil, classifyHttpError(model.PlatformMicroblog, "fetch_comments", err)
	}

	leadAuthor := ""
	for _, tweet := range res.Data {
		if tweet.ID == itemId {
			leadAuthor = tweet.AuthorID
			break
		}
	}

	comments := []model.RawComment{}
	for _, tweet := range res.Data {
		if tweet.ID == itemId || tweet.Text == "" {
			continue
		}
		author := tweet.AuthorID
		if user := res.Includes.UserById(tweet.AuthorID); user != nil {
			author = user.Username
		}
		comments = append(comments, model.RawComment{
			Author:           author,
			Body:             tweet.Text,
			Score:            tweet.PublicMetrics.LikeCount,
			IsOriginalPoster: leadAuthor != "" && tweet.AuthorID == leadAuthor,
		})
	}
	return comments, nil
}

func (a *MicroblogAdapter) FetchItem(ctx context.Context, itemId string) (*model.RawItem, error) {
	res, err := a.api.GetTweet(ctx, itemId)
	if err != nil {
		return nil, classifyHttpError(model.PlatformMicroblog, "fetch_item", err)
	}
	if res.Data.ID == "" || res.Data.Text == "" {
		return nil, collector.NewPermanentError(model.PlatformMicroblog, "fetch_item",
			fmt.Errorf("item %s is unavailable", itemId))
	}

	item := tweetToRawItem(res.Data, &res.Includes)
	return &item, nil
}

func searchResponseToRawItems(res *clients.SearchRecentResponse) []model.RawItem {
	items := []model.RawItem{}
	for _, tweet := range res.Data {
		// Withheld or deleted items come back with empty text, skip them.
		if tweet.Text == "" {
			continue
		}
		items = append(items, tweetToRawItem(tweet, &res.Includes))
	}
	return items
}

func tweetToRawItem(tweet clients.TweetData, includes *clients.TweetIncludes) model.RawItem {
	item := model.RawItem{
		Platform:       model.PlatformMicroblog,
		SourceId:       tweet.ID,
		AuthorId:       tweet.AuthorID,
		Body:           tweet.Text,
		ConversationId: tweet.ConversationID,
		Counters: map[string]int64{
			model.CounterLikes:   tweet.PublicMetrics.LikeCount,
			model.CounterReposts: tweet.PublicMetrics.RetweetCount,
			model.CounterReplies: tweet.PublicMetrics.ReplyCount,
			model.CounterQuotes:  tweet.PublicMetrics.QuoteCount,
		},
	}

	if ts, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
		item.CreatedAt = ts.UTC()
	}

	if user := includes.UserById(tweet.AuthorID); user != nil {
		item.AuthorHandle = user.Username
		item.AuthorName = user.Name
		item.Verified = user.Verified
	}
	if item.AuthorHandle != "" {
		item.PermaLink = fmt.Sprintf(microblogPermalinkFormat, item.AuthorHandle, tweet.ID)
	}

	for _, key := range tweet.Attachments.MediaKeys {
		media := includes.MediaByKey(key)
		if media == nil {
			continue
		}
		ref := model.MediaRef{
			Url:    media.URL,
			Width:  media.Width,
			Height: media.Height,
		}
		switch media.Type {
		case "photo":
			ref.Kind = "image"
		case "video":
			ref.Kind = "video"
			if ref.Url == "" {
				ref.Url = media.PreviewImageURL
			}
		case "animated_gif":
			ref.Kind = "gif"
			if ref.Url == "" {
				ref.Url = media.PreviewImageURL
			}
		default:
			continue
		}
		if ref.Url != "" {
			item.Media = append(item.Media, ref)
		}
	}

	return item
}

func mirrorTweetsToRawItems(tweets []clients.MirrorTweet) []model.RawItem {
	items := []model.RawItem{}
	for _, tweet := range tweets {
		items = append(items, mirrorTweetToRawItem(tweet))
	}
	return items
}

func mirrorTweetToRawItem(tweet clients.MirrorTweet) model.RawItem {
	item := model.RawItem{
		Platform:     model.PlatformMicroblog,
		SourceId:     tweet.Id,
		AuthorHandle: tweet.Username,
		AuthorName:   tweet.Fullname,
		Verified:     tweet.Verified,
		Body:         tweet.Text,
		CreatedAt:    tweet.CreatedAt,
		PermaLink:    tweet.Permalink,
		Counters: map[string]int64{
			model.CounterLikes:   tweet.Likes,
			model.CounterReposts: tweet.Retweets,
			model.CounterReplies: tweet.Replies,
			model.CounterQuotes:  tweet.Quotes,
		},
	}
	for _, src := range tweet.Images {
		item.Media = append(item.Media, model.MediaRef{Url: src, Kind: "image"})
	}
	return item
}

// classifyHttpError maps a client error onto the adapter error taxonomy.
// Rate limits, server errors and network failures are worth retrying,
// everything else is not.
func classifyHttpError(platform, op string, err error) *collector.AdapterError {
	if se, ok := err.(*clients.StatusError); ok {
		if clients.IsRetryableStatus(se) {
			return collector.NewTransientError(platform, op, err)
		}
		return collector.NewPermanentError(platform, op, err)
	}
	if err == context.DeadlineExceeded || err == context.Canceled {
		return collector.NewTransientError(platform, op, err)
	}
	// Anything else at this layer is a transport failure.
	return collector.NewTransientError(platform, op, err)
}
