package collector

import (
	"github.com/viralmux/viralmux/model"
)

// EngagementScorer converts platform specific raw counters into one
// comparable number. Implementations must be deterministic and monotonic:
// increasing any single counter never decreases the score.
type EngagementScorer interface {
	Score(item *model.RawItem) int64
}

// MicroblogScorer weighs quotes highest as a proxy for viral disagreement,
// reposts above replies as a proxy for reach.
//
// score = likes + 3*reposts + 2*replies + 4*quotes
type MicroblogScorer struct {
	LikeWeight   int64
	RepostWeight int64
	ReplyWeight  int64
	QuoteWeight  int64
}

func NewMicroblogScorer() *MicroblogScorer {
	return &MicroblogScorer{
		LikeWeight:   1,
		RepostWeight: 3,
		ReplyWeight:  2,
		QuoteWeight:  4,
	}
}

func (s *MicroblogScorer) Score(item *model.RawItem) int64 {
	return s.LikeWeight*item.Counter(model.CounterLikes) +
		s.RepostWeight*item.Counter(model.CounterReposts) +
		s.ReplyWeight*item.Counter(model.CounterReplies) +
		s.QuoteWeight*item.Counter(model.CounterQuotes)
}

// ForumScorer weighs comments above upvotes because they indicate actual
// discussion, and awards highest because they cost real money.
//
// score = upvotes + 3*comments + 100*awards
type ForumScorer struct {
	UpvoteWeight  int64
	CommentWeight int64
	AwardWeight   int64
}

func NewForumScorer() *ForumScorer {
	return &ForumScorer{
		UpvoteWeight:  1,
		CommentWeight: 3,
		AwardWeight:   100,
	}
}

func (s *ForumScorer) Score(item *model.RawItem) int64 {
	return s.UpvoteWeight*item.Counter(model.CounterUpvotes) +
		s.CommentWeight*item.Counter(model.CounterComments) +
		s.AwardWeight*item.Counter(model.CounterAwards)
}

// ScorerForPlatform returns the scorer matching the platform tag. Unknown
// platforms score zero so that a misconfigured query never ranks.
func ScorerForPlatform(platform string) EngagementScorer {
	switch platform {
	case model.PlatformMicroblog:
		return NewMicroblogScorer()
	case model.PlatformForum:
		return NewForumScorer()
	default:
		return zeroScorer{}
	}
}

type zeroScorer struct{}

func (zeroScorer) Score(*model.RawItem) int64 { return 0 }
