package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralmux/viralmux/model"
)

func TestRankByEngagementOrder(t *testing.T) {
	item1 := microblogItem(100, 10, 5, 0) // 140
	item1.SourceId = "1"
	item2 := microblogItem(5000, 1, 0, 0) // 5003
	item2.SourceId = "2"
	item3 := microblogItem(50, 0, 0, 200) // 850
	item3.SourceId = "3"

	ranked := RankByEngagement([]model.RawItem{item1, item2, item3}, ScorerForPlatform)

	require.Len(t, ranked, 3)
	assert.Equal(t, "2", ranked[0].Item.SourceId)
	assert.Equal(t, "3", ranked[1].Item.SourceId)
	assert.Equal(t, "1", ranked[2].Item.SourceId)
	assert.Equal(t, int64(5003), ranked[0].Score)
}

func TestRankByEngagementStable(t *testing.T) {
	a := microblogItem(100, 0, 0, 0)
	a.SourceId = "a"
	b := microblogItem(100, 0, 0, 0)
	b.SourceId = "b"
	c := microblogItem(100, 0, 0, 0)
	c.SourceId = "c"

	ranked := RankByEngagement([]model.RawItem{a, b, c}, ScorerForPlatform)

	require.Len(t, ranked, 3)
	// equal scores keep discovery order
	assert.Equal(t, "a", ranked[0].Item.SourceId)
	assert.Equal(t, "b", ranked[1].Item.SourceId)
	assert.Equal(t, "c", ranked[2].Item.SourceId)
}

func TestRankByEngagementMixedPlatforms(t *testing.T) {
	tweet := microblogItem(1000, 0, 0, 0)
	tweet.SourceId = "tw"
	post := model.RawItem{
		Platform: model.PlatformForum,
		SourceId: "rd",
		Counters: map[string]int64{model.CounterUpvotes: 2000},
	}

	ranked := RankByEngagement([]model.RawItem{tweet, post}, ScorerForPlatform)
	assert.Equal(t, "rd", ranked[0].Item.SourceId)
}
