package instances

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralmux/viralmux/collector/clients"
	"github.com/viralmux/viralmux/model"
)

func loadSearchRecentFixture(t *testing.T) *clients.SearchRecentResponse {
	bytes, err := ioutil.ReadFile("testdata/search_recent.json")
	require.NoError(t, err)
	res, err := clients.ParseSearchRecentResponse(bytes)
	require.NoError(t, err)
	return res
}

func TestSearchResponseToRawItems(t *testing.T) {
	res := loadSearchRecentFixture(t)
	items := searchResponseToRawItems(res)

	// The empty-text item is dropped.
	require.Len(t, items, 2)

	lead := items[0]
	assert.Equal(t, model.PlatformMicroblog, lead.Platform)
	assert.Equal(t, "1901", lead.SourceId)
	assert.Equal(t, "1901", lead.ConversationId)
	assert.Equal(t, "danawatches", lead.AuthorHandle)
	assert.Equal(t, "Dana Park", lead.AuthorName)
	assert.True(t, lead.Verified)
	assert.Equal(t, "https://twitter.com/danawatches/status/1901", lead.PermaLink)
	assert.Equal(t,
		time.Date(2024, 1, 2, 19, 4, 0, 0, time.UTC), lead.CreatedAt)

	assert.Equal(t, int64(4500), lead.Counter(model.CounterLikes))
	assert.Equal(t, int64(1600), lead.Counter(model.CounterReposts))
	assert.Equal(t, int64(120), lead.Counter(model.CounterReplies))
	assert.Equal(t, int64(310), lead.Counter(model.CounterQuotes))

	require.Len(t, lead.Media, 1)
	assert.Equal(t, "image", lead.Media[0].Kind)
	assert.Equal(t, "https://pbs.example.com/media/abc.jpg", lead.Media[0].Url)
	assert.Equal(t, 1200, lead.Media[0].Width)

	followup := items[1]
	assert.Equal(t, "1903", followup.SourceId)
	assert.Equal(t, "1901", followup.ConversationId)
	// Same author expansion applies to every item in the response.
	assert.Equal(t, "danawatches", followup.AuthorHandle)
}

func TestMirrorTweetToRawItem(t *testing.T) {
	tweet := clients.MirrorTweet{
		Id:        "2200",
		Username:  "danawatches",
		Fullname:  "Dana Park",
		Verified:  true,
		Text:      "He is still parking.",
		CreatedAt: time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC),
		Replies:   4,
		Retweets:  52,
		Quotes:    3,
		Likes:     410,
		Permalink: "https://mirror.example.com/danawatches/status/2200",
		Images:    []string{"https://mirror.example.com/pic/1.jpg"},
	}

	item := mirrorTweetToRawItem(tweet)
	assert.Equal(t, model.PlatformMicroblog, item.Platform)
	assert.Equal(t, "2200", item.SourceId)
	assert.Equal(t, int64(410), item.Counter(model.CounterLikes))
	assert.Equal(t, int64(52), item.Counter(model.CounterReposts))
	assert.Equal(t, int64(4), item.Counter(model.CounterReplies))
	assert.Equal(t, int64(3), item.Counter(model.CounterQuotes))
	require.Len(t, item.Media, 1)
	assert.Equal(t, "image", item.Media[0].Kind)
}

func TestClassifyHttpError(t *testing.T) {
	rateLimited := classifyHttpError("microblog", "search", &clients.StatusError{Code: 429})
	assert.True(t, rateLimited.Transient)

	serverSide := classifyHttpError("microblog", "search", &clients.StatusError{Code: 503})
	assert.True(t, serverSide.Transient)

	notFound := classifyHttpError("microblog", "fetch_item", &clients.StatusError{Code: 404})
	assert.False(t, notFound.Transient)
}
