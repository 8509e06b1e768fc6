package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
)

const (
	SearchRecentBaseUri = `https://api.twitter.com/2/tweets/search/recent`
	TweetLookupBaseUri  = `https://api.twitter.com/2/tweets/%s`

	// Platform-enforced maximum page size per search call.
	MaxSearchPageSize = 100
)

var tweetFieldParams = map[string]string{
	"tweet.fields": "author_id,created_at,public_metrics,conversation_id,attachments,entities",
	"expansions":   "author_id,attachments.media_keys",
	"user.fields":  "name,username,verified",
	"media.fields": "url,preview_image_url,type,width,height",
}

// Generated with tool: https://mholt.github.io/json-to-go/
type TweetPublicMetrics struct {
	RetweetCount int64 `json:"retweet_count"`
	ReplyCount   int64 `json:"reply_count"`
	LikeCount    int64 `json:"like_count"`
	QuoteCount   int64 `json:"quote_count"`
}

type TweetData struct {
	ID             string             `json:"id"`
	Text           string             `json:"text"`
	AuthorID       string             `json:"author_id"`
	CreatedAt      string             `json:"created_at"`
	ConversationID string             `json:"conversation_id"`
	PublicMetrics  TweetPublicMetrics `json:"public_metrics"`
	Attachments    struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type TweetUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

type TweetMedia struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// TweetIncludes carries the expanded objects the tweets reference by id.
type TweetIncludes struct {
	Users []TweetUser  `json:"users"`
	Media []TweetMedia `json:"media"`
}

// UserById returns the expanded user for an author id, nil when the
// expansion did not include it.
func (inc *TweetIncludes) UserById(id string) *TweetUser {
	for i := range inc.Users {
		if inc.Users[i].ID == id {
			return &inc.Users[i]
		}
	}
	return nil
}

// MediaByKey returns the expanded media entry for a media key.
func (inc *TweetIncludes) MediaByKey(key string) *TweetMedia {
	for i := range inc.Media {
		if inc.Media[i].MediaKey == key {
			return &inc.Media[i]
		}
	}
	return nil
}

type SearchRecentResponse struct {
	Data     []TweetData   `json:"data"`
	Includes TweetIncludes `json:"includes"`
	Meta     struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type TweetLookupResponse struct {
	Data     TweetData     `json:"data"`
	Includes TweetIncludes `json:"includes"`
}

// MicroblogClient is a thin wrapper upon HttpClient to make requests to the
// microblog platform search API.
type MicroblogClient struct {
	client *HttpClient

	// Bearer token used to authenticate every request.
	bearerToken string
}

func NewMicroblogClient(bearerToken string) *MicroblogClient {
	header := http.Header{}
	header.Add("Authorization", "Bearer "+bearerToken)
	return &MicroblogClient{
		client:      NewHttpClient(header, []http.Cookie{}),
		bearerToken: bearerToken,
	}
}

// SearchRecent runs one search query, returning at most maxResults items.
func (c *MicroblogClient) SearchRecent(ctx context.Context, query string, maxResults int) (*SearchRecentResponse, error) {
	if maxResults > MaxSearchPageSize {
		maxResults = MaxSearchPageSize
	}
	params := map[string]string{
		"query":       query,
		"max_results": strconv.Itoa(maxResults),
	}
	for k, v := range tweetFieldParams {
		params[k] = v
	}

	resp, err := c.client.GetWithQueryParams(ctx, SearchRecentBaseUri, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseSearchRecentResponse(body)
}

// SearchConversation returns items in one conversation authored by the given
// handle, used for thread reconstruction.
func (c *MicroblogClient) SearchConversation(ctx context.Context, conversationId, authorHandle string, limit int) (*SearchRecentResponse, error) {
	query := fmt.Sprintf("conversation_id:%s from:%s", conversationId, authorHandle)
	return c.SearchRecent(ctx, query, limit)
}

// GetTweet looks up one item by id.
func (c *MicroblogClient) GetTweet(ctx context.Context, id string) (*TweetLookupResponse, error) {
	params := map[string]string{}
	for k, v := range tweetFieldParams {
		params[k] = v
	}
	resp, err := c.client.GetWithQueryParams(ctx, fmt.Sprintf(TweetLookupBaseUri, id), params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	res := &TweetLookupResponse{}
	if err := json.Unmarshal(body, res); err != nil {
		return nil, err
	}
	return res, nil
}

func ParseSearchRecentResponse(bytes []byte) (*SearchRecentResponse, error) {
	res := &SearchRecentResponse{}
	if err := json.Unmarshal(bytes, res); err != nil {
		return nil, err
	}
	return res, nil
}
