package instances

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/collector/clients"
	"github.com/viralmux/viralmux/model"
	"github.com/viralmux/viralmux/utils"
	Logger "github.com/viralmux/viralmux/utils/log"
)

const forumListingTimeframe = "day"

// ForumAdapter pulls community listings from the forum platform. A search
// query's Query field names the community; each search merges the top, hot
// and controversial listings so a post only has to chart on one of them.
type ForumAdapter struct {
	client *clients.ForumClient

	// Communities where over-18 posts are expected and kept. Everywhere
	// else they are dropped.
	nsfwAllowlist []string
}

func NewForumAdapter(nsfwAllowlist []string) *ForumAdapter {
	return &ForumAdapter{
		client:        clients.NewForumClient(),
		nsfwAllowlist: nsfwAllowlist,
	}
}

// NewForumAdapterWithClient exists so tests can inject a client pointed at a
// local server.
func NewForumAdapterWithClient(client *clients.ForumClient, nsfwAllowlist []string) *ForumAdapter {
	return &ForumAdapter{client: client, nsfwAllowlist: nsfwAllowlist}
}

func (a *ForumAdapter) Platform() string {
	return model.PlatformForum
}

func (a *ForumAdapter) Search(ctx context.Context, query model.SearchQuery) ([]model.RawItem, error) {
	community := query.Query

	seen := map[string]bool{}
	items := []model.RawItem{}
	var lastErr error
	fetched := 0

	for _, sort := range clients.ForumListingSorts {
		listing, err := a.client.FetchListing(ctx, community, sort, forumListingTimeframe, 50)
		if err != nil {
			Logger.Log.Warnf("forum %s/%s listing failed: %v", community, sort, err)
			lastErr = err
			continue
		}
		fetched++
		for _, post := range listing.Posts() {
			if seen[post.ID] {
				continue
			}
			seen[post.ID] = true
			if a.skipPost(&post, community) {
				continue
			}
			items = append(items, postToRawItem(post))
		}
	}

	// A partially failed merge is still a usable result. Only when every
	// sort failed is the query itself a failure.
	if fetched == 0 {
		return nil, classifyHttpError(model.PlatformForum, "search", lastErr)
	}
	return items, nil
}

// FetchThread is a no-op for the forum, posts have no author-side thread
// siblings. Every forum item converts as a standalone story.
func (a *ForumAdapter) FetchThread(ctx context.Context, conversationId string, authorHandle string, limit int) ([]model.RawItem, error) {
	return []model.RawItem{}, nil
}

func (a *ForumAdapter) FetchComments(ctx context.Context, itemId string, limit int) ([]model.RawComment, error) {
	raw, err := a.client.FetchComments(ctx, itemId, limit)
	if err != nil {
		return nil, classifyHttpError(model.PlatformForum, "fetch_comments", err)
	}

	comments := []model.RawComment{}
	for _, c := range raw {
		if c.Stickied || c.Body == "" || c.Body == "[deleted]" || c.Body == "[removed]" {
			continue
		}
		comments = append(comments, model.RawComment{
			Author:           c.Author,
			Body:             c.Body,
			Score:            c.Score,
			IsOriginalPoster: c.IsSubmitter,
		})
	}
	return comments, nil
}

func (a *ForumAdapter) FetchItem(ctx context.Context, itemId string) (*model.RawItem, error) {
	post, err := a.client.FetchPost(ctx, itemId)
	if err != nil {
		return nil, classifyHttpError(model.PlatformForum, "fetch_item", err)
	}
	if post.RemovedByCategory != "" || post.Author == "[deleted]" {
		return nil, collector.NewPermanentError(model.PlatformForum, "fetch_item",
			fmt.Errorf("post %s has been removed", itemId))
	}

	item := postToRawItem(*post)
	return &item, nil
}

func (a *ForumAdapter) skipPost(post *clients.ForumPostData, community string) bool {
	if post.RemovedByCategory != "" || post.Locked || post.Stickied {
		return true
	}
	if post.Author == "" || post.Author == "[deleted]" {
		return true
	}
	if post.Over18 && !utils.ContainsString(a.nsfwAllowlist, community) {
		return true
	}
	return false
}

func postToRawItem(post clients.ForumPostData) model.RawItem {
	item := model.RawItem{
		Platform:     model.PlatformForum,
		SourceId:     post.ID,
		AuthorId:     post.AuthorFullname,
		AuthorHandle: post.Author,
		Title:        post.Title,
		Body:         post.Selftext,
		CreatedAt:    time.Unix(int64(post.CreatedUtc), 0).UTC(),
		PermaLink:    clients.ForumBaseUri + post.Permalink,
		Counters: map[string]int64{
			model.CounterUpvotes:  post.Score,
			model.CounterComments: post.NumComments,
			model.CounterAwards:   post.TotalAwardsReceived,
		},
	}

	for _, img := range post.Preview.Images {
		if img.Source.URL == "" {
			continue
		}
		item.Media = append(item.Media, model.MediaRef{
			// Preview urls come back html escaped.
			Url:    html.UnescapeString(img.Source.URL),
			Kind:   "image",
			Width:  img.Source.Width,
			Height: img.Source.Height,
		})
	}
	if post.IsVideo && post.URL != "" {
		item.Media = append(item.Media, model.MediaRef{Url: post.URL, Kind: "video"})
	}
	// Link posts point URL at an external target. Self posts point it back
	// at their own permalink.
	if len(item.Media) == 0 && post.Selftext == "" && post.URL != "" &&
		post.URL != clients.ForumBaseUri+post.Permalink {
		item.Media = append(item.Media, model.MediaRef{Url: post.URL, Kind: "link"})
	}

	return item
}
