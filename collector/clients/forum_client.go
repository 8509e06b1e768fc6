package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

const (
	ForumBaseUri = "https://www.reddit.com"

	forumUserAgent = "viralmux/1.0 (viral content discovery)"

	// Listing kinds the forum wraps payloads in.
	ForumKindPost    = "t3"
	ForumKindComment = "t1"
)

// Listing sorts worth pulling for discovery. Top surfaces what already went
// viral, controversial surfaces what is still being fought over.
var ForumListingSorts = []string{"top", "hot", "controversial"}

// Generated with tool: https://mholt.github.io/json-to-go/
type ForumPostData struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Selftext            string  `json:"selftext"`
	Author              string  `json:"author"`
	AuthorFullname      string  `json:"author_fullname"`
	Subreddit           string  `json:"subreddit"`
	Score               int64   `json:"score"`
	NumComments         int64   `json:"num_comments"`
	TotalAwardsReceived int64   `json:"total_awards_received"`
	CreatedUtc          float64 `json:"created_utc"`
	Permalink           string  `json:"permalink"`
	URL                 string  `json:"url"`
	Over18              bool    `json:"over_18"`
	Locked              bool    `json:"locked"`
	RemovedByCategory   string  `json:"removed_by_category"`
	Stickied            bool    `json:"stickied"`
	IsVideo             bool    `json:"is_video"`
	Preview             struct {
		Images []struct {
			Source struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

type ForumCommentData struct {
	ID          string  `json:"id"`
	Author      string  `json:"author"`
	Body        string  `json:"body"`
	Score       int64   `json:"score"`
	IsSubmitter bool    `json:"is_submitter"`
	CreatedUtc  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

type ForumChild struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type ForumListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []ForumChild `json:"children"`
		After    string       `json:"after"`
	} `json:"data"`
}

// Posts decodes the t3 children of a listing, silently skipping anything
// that does not decode as a post.
func (l *ForumListing) Posts() []ForumPostData {
	posts := []ForumPostData{}
	for _, child := range l.Data.Children {
		if child.Kind != ForumKindPost {
			continue
		}
		var post ForumPostData
		if err := json.Unmarshal(child.Data, &post); err != nil {
			continue
		}
		posts = append(posts, post)
	}
	return posts
}

// Comments decodes the t1 children of a listing.
func (l *ForumListing) Comments() []ForumCommentData {
	comments := []ForumCommentData{}
	for _, child := range l.Data.Children {
		if child.Kind != ForumKindComment {
			continue
		}
		var comment ForumCommentData
		if err := json.Unmarshal(child.Data, &comment); err != nil {
			continue
		}
		comments = append(comments, comment)
	}
	return comments
}

// ForumClient talks to the forum platform's public JSON listing endpoints.
// No credentials are needed, only a descriptive user agent.
type ForumClient struct {
	client  *HttpClient
	baseUri string
}

func NewForumClient() *ForumClient {
	return NewForumClientWithBase(ForumBaseUri)
}

// NewForumClientWithBase exists so tests can point the client at a local
// server.
func NewForumClientWithBase(baseUri string) *ForumClient {
	header := http.Header{}
	header.Add("User-Agent", forumUserAgent)
	return &ForumClient{
		client:  NewHttpClient(header, []http.Cookie{}),
		baseUri: baseUri,
	}
}

// FetchListing pulls one community listing with the given sort, e.g.
// /r/tifu/top.json?t=day&limit=50.
func (c *ForumClient) FetchListing(ctx context.Context, community, sort, timeframe string, limit int) (*ForumListing, error) {
	uri := fmt.Sprintf("%s/r/%s/%s.json", c.baseUri, community, sort)
	resp, err := c.client.GetWithQueryParams(ctx, uri, map[string]string{
		"t":     timeframe,
		"limit": fmt.Sprint(limit),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseForumListing(body)
}

// FetchPost looks one post up by its id.
func (c *ForumClient) FetchPost(ctx context.Context, id string) (*ForumPostData, error) {
	uri := fmt.Sprintf("%s/api/info.json", c.baseUri)
	resp, err := c.client.GetWithQueryParams(ctx, uri, map[string]string{
		"id": ForumKindPost + "_" + id,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	listing, err := ParseForumListing(body)
	if err != nil {
		return nil, err
	}
	posts := listing.Posts()
	if len(posts) == 0 {
		return nil, fmt.Errorf("no post with id %s", id)
	}
	return &posts[0], nil
}

// FetchComments pulls the comment page of a post. The endpoint returns two
// listings, the post itself followed by its comments.
func (c *ForumClient) FetchComments(ctx context.Context, postId string, limit int) ([]ForumCommentData, error) {
	uri := fmt.Sprintf("%s/comments/%s.json", c.baseUri, postId)
	resp, err := c.client.GetWithQueryParams(ctx, uri, map[string]string{
		"limit": fmt.Sprint(limit),
		"sort":  "top",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var listings []ForumListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return []ForumCommentData{}, nil
	}
	return listings[1].Comments(), nil
}

func ParseForumListing(bytes []byte) (*ForumListing, error) {
	listing := &ForumListing{}
	if err := json.Unmarshal(bytes, listing); err != nil {
		return nil, err
	}
	return listing, nil
}
