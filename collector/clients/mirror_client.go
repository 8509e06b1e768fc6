package clients

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/gocolly/colly"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"

	Logger "github.com/viralmux/viralmux/utils/log"
)

const mirrorUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// MirrorTweet is one microblog item scraped from a mirror page or feed.
type MirrorTweet struct {
	Id        string
	Username  string
	Fullname  string
	Verified  bool
	Text      string
	CreatedAt time.Time
	Replies   int64
	Retweets  int64
	Quotes    int64
	Likes     int64
	Permalink string
	Images    []string
}

// MirrorHealth is the probe result for one mirror endpoint.
type MirrorHealth struct {
	Mirror       string
	Working      bool
	ResponseTime time.Duration
}

// MirrorClient scrapes equivalent mirror frontends of the microblog
// platform. The working-endpoint rotation is client local state, multiple
// clients never interfere with each other.
type MirrorClient struct {
	mu      sync.Mutex
	mirrors []string
	current int

	http *HttpClient
}

func NewMirrorClient(mirrors []string) *MirrorClient {
	return &MirrorClient{
		mirrors: mirrors,
		http:    NewDefaultHttpClient(),
	}
}

func (c *MirrorClient) currentMirror() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirrors[c.current%len(c.mirrors)]
}

func (c *MirrorClient) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = (c.current + 1) % len(c.mirrors)
}

// SearchFeed runs a search through the mirror RSS feed, trying every mirror
// once before giving up.
func (c *MirrorClient) SearchFeed(ctx context.Context, query string, maxResults int) ([]MirrorTweet, error) {
	if len(c.mirrors) == 0 {
		return nil, errors.New("no mirrors configured")
	}

	var lastErr error
	for attempt := 0; attempt < len(c.mirrors); attempt++ {
		mirror := c.currentMirror()
		tweets, err := c.searchOneMirror(ctx, mirror, query, maxResults)
		if err == nil && len(tweets) > 0 {
			return tweets, nil
		}
		if err != nil {
			Logger.Log.Warnf("mirror %s failed: %v", mirror, err)
			lastErr = err
		}
		c.rotate()
	}
	if lastErr == nil {
		lastErr = errors.New("all mirrors returned empty results")
	}
	return nil, errors.Wrap(lastErr, "all mirrors failed")
}

func (c *MirrorClient) searchOneMirror(ctx context.Context, mirror, query string, maxResults int) ([]MirrorTweet, error) {
	uri := fmt.Sprintf("%s/search/rss?f=tweets&q=%s", mirror, url.QueryEscape(query))
	resp, err := c.http.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "mirror feed parse")
	}

	tweets := []MirrorTweet{}
	for _, item := range feed.Items {
		if len(tweets) >= maxResults {
			break
		}
		tweet := MirrorTweet{
			Id:        tweetIdFromLink(item.Link),
			Username:  strings.TrimPrefix(strings.TrimSpace(itemCreator(item)), "@"),
			Text:      strings.TrimSpace(item.Title),
			Permalink: item.Link,
		}
		if tweet.Id == "" || tweet.Text == "" {
			continue
		}
		if item.PublishedParsed != nil {
			tweet.CreatedAt = item.PublishedParsed.UTC()
		} else if ts, err := dateparse.ParseAny(item.Published); err == nil {
			tweet.CreatedAt = ts.UTC()
		}
		tweets = append(tweets, tweet)
	}
	return tweets, nil
}

// FetchConversation scrapes the conversation page of one item, returning the
// items on it in page order.
func (c *MirrorClient) FetchConversation(ctx context.Context, authorHandle, itemId string) ([]MirrorTweet, error) {
	if len(c.mirrors) == 0 {
		return nil, errors.New("no mirrors configured")
	}

	var lastErr error
	for attempt := 0; attempt < len(c.mirrors); attempt++ {
		mirror := c.currentMirror()
		uri := fmt.Sprintf("%s/%s/status/%s", mirror, authorHandle, itemId)
		tweets, err := c.scrapeTimeline(uri)
		if err == nil && len(tweets) > 0 {
			return tweets, nil
		}
		if err != nil {
			Logger.Log.Warnf("mirror %s failed: %v", mirror, err)
			lastErr = err
		}
		c.rotate()
	}
	if lastErr == nil {
		lastErr = errors.New("all mirrors returned empty conversations")
	}
	return nil, errors.Wrap(lastErr, "all mirrors failed")
}

func (c *MirrorClient) scrapeTimeline(uri string) ([]MirrorTweet, error) {
	tweets := []MirrorTweet{}

	crawler := colly.NewCollector(colly.UserAgent(mirrorUserAgent))
	crawler.SetRequestTimeout(DefaultTimeout)

	crawler.OnHTML(".timeline-item", func(e *colly.HTMLElement) {
		tweet := parseTimelineItem(e)
		if tweet != nil {
			tweets = append(tweets, *tweet)
		}
	})

	if err := crawler.Visit(uri); err != nil {
		return nil, err
	}
	return tweets, nil
}

func parseTimelineItem(e *colly.HTMLElement) *MirrorTweet {
	text := strings.TrimSpace(e.ChildText(".tweet-content"))
	if text == "" {
		return nil
	}

	link := e.ChildAttr("a.tweet-link", "href")
	tweet := &MirrorTweet{
		Id:        tweetIdFromLink(link),
		Username:  strings.TrimPrefix(e.ChildText("a.username"), "@"),
		Fullname:  strings.TrimSpace(e.ChildText("a.fullname")),
		Verified:  e.DOM.Find(".icon-verified").Length() > 0,
		Text:      text,
		Permalink: link,
	}
	if tweet.Id == "" {
		return nil
	}

	// The date link carries the full timestamp in its title attribute,
	// e.g. "Jan 2, 2024 · 7:04 PM UTC"
	if title := e.ChildAttr(".tweet-date a", "title"); title != "" {
		cleaned := strings.ReplaceAll(title, "·", "")
		if ts, err := dateparse.ParseAny(cleaned); err == nil {
			tweet.CreatedAt = ts.UTC()
		}
	}

	e.DOM.Find(".tweet-stats .tweet-stat").Each(func(_ int, stat *goquery.Selection) {
		count := parseStatCount(stat.Text())
		switch {
		case stat.Find(".icon-comment").Length() > 0:
			tweet.Replies = count
		case stat.Find(".icon-retweet").Length() > 0:
			tweet.Retweets = count
		case stat.Find(".icon-quote").Length() > 0:
			tweet.Quotes = count
		case stat.Find(".icon-heart").Length() > 0:
			tweet.Likes = count
		}
	})

	e.DOM.Find(".attachments img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			tweet.Images = append(tweet.Images, src)
		}
	})

	return tweet
}

func parseStatCount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func tweetIdFromLink(link string) string {
	trimmed := strings.TrimSuffix(link, "#m")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}

func itemCreator(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

// CheckHealth probes every mirror and reports response time per mirror. The
// rotation prefers the first healthy mirror.
func (c *MirrorClient) CheckHealth(ctx context.Context) []MirrorHealth {
	results := []MirrorHealth{}
	for _, mirror := range c.mirrors {
		start := time.Now()
		resp, err := c.http.Get(ctx, mirror)
		health := MirrorHealth{
			Mirror:       mirror,
			Working:      err == nil,
			ResponseTime: time.Since(start),
		}
		if resp != nil {
			resp.Body.Close()
		}
		results = append(results, health)
	}

	for i, h := range results {
		if h.Working {
			c.mu.Lock()
			c.current = i
			c.mu.Unlock()
			break
		}
	}
	return results
}
