package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viralmux/viralmux/model"
)

func microblogItem(likes, reposts, replies, quotes int64) model.RawItem {
	return model.RawItem{
		Platform: model.PlatformMicroblog,
		Counters: map[string]int64{
			model.CounterLikes:   likes,
			model.CounterReposts: reposts,
			model.CounterReplies: replies,
			model.CounterQuotes:  quotes,
		},
	}
}

func TestMicroblogScorerWeights(t *testing.T) {
	s := NewMicroblogScorer()

	item := microblogItem(100, 10, 5, 0)
	assert.Equal(t, int64(140), s.Score(&item))

	item = microblogItem(5000, 1, 1, 0)
	assert.Equal(t, int64(5005), s.Score(&item))

	item = microblogItem(50, 0, 0, 200)
	assert.Equal(t, int64(850), s.Score(&item))
}

func TestMicroblogScorerMonotonic(t *testing.T) {
	s := NewMicroblogScorer()
	base := microblogItem(10, 10, 10, 10)
	baseScore := s.Score(&base)

	for _, name := range []string{
		model.CounterLikes, model.CounterReposts,
		model.CounterReplies, model.CounterQuotes,
	} {
		bumped := microblogItem(10, 10, 10, 10)
		bumped.Counters[name]++
		assert.Greater(t, s.Score(&bumped), baseScore, "counter %s", name)
	}
}

func TestForumScorer(t *testing.T) {
	s := NewForumScorer()
	item := model.RawItem{
		Platform: model.PlatformForum,
		Counters: map[string]int64{
			model.CounterUpvotes:  1000,
			model.CounterComments: 50,
			model.CounterAwards:   2,
		},
	}
	assert.Equal(t, int64(1000+150+200), s.Score(&item))
}

func TestScorerForPlatform(t *testing.T) {
	assert.IsType(t, &MicroblogScorer{}, ScorerForPlatform(model.PlatformMicroblog))
	assert.IsType(t, &ForumScorer{}, ScorerForPlatform(model.PlatformForum))

	unknown := model.RawItem{Platform: "myspace", Counters: map[string]int64{model.CounterLikes: 9000}}
	assert.Equal(t, int64(0), ScorerForPlatform("myspace").Score(&unknown))
}
