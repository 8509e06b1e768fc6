package collector

import (
	"regexp"
	"strings"

	"github.com/viralmux/viralmux/model"
)

// Predicate inspects one item and either passes it or rejects it with a
// reason. Predicates never mutate the item.
type Predicate func(item *model.RawItem, score int64) (ok bool, reason string)

// QualityFilter is a short-circuit chain of independent predicates. Running
// the filter over its own output changes nothing.
type QualityFilter struct {
	predicates []Predicate
}

// FilterResult records why the rejected items were dropped.
type FilterResult struct {
	Kept     []model.RawItem
	Rejected map[string]string // dedup key -> reason
}

func NewQualityFilter(predicates ...Predicate) *QualityFilter {
	return &QualityFilter{predicates: predicates}
}

// DefaultPredicates builds the standard chain.
func DefaultPredicates(minBodyLength int, mentionOnlyMinScore int64, spamPhrases []string) []Predicate {
	return []Predicate{
		MinBodyLength(minBodyLength),
		MentionOnlyReply(mentionOnlyMinScore),
		LinkOnlyBody(),
		SpamPhrases(spamPhrases),
		ForumTitleLength(10),
		ForumDiscussionRatio(0.5),
	}
}

// Apply runs every item through the chain, rejecting on the first failing
// predicate.
func (f *QualityFilter) Apply(items []model.RawItem, scorer func(platform string) EngagementScorer) FilterResult {
	result := FilterResult{Rejected: map[string]string{}}
	for i := range items {
		item := &items[i]
		score := scorer(item.Platform).Score(item)
		ok, reason := f.check(item, score)
		if ok {
			result.Kept = append(result.Kept, *item)
		} else {
			result.Rejected[item.DedupKey().String()] = reason
		}
	}
	return result
}

func (f *QualityFilter) check(item *model.RawItem, score int64) (bool, string) {
	for _, p := range f.predicates {
		if ok, reason := p(item, score); !ok {
			return false, reason
		}
	}
	return true, ""
}

// MinBodyLength rejects items whose body is too short to make a story.
func MinBodyLength(min int) Predicate {
	return func(item *model.RawItem, score int64) (bool, string) {
		if len(item.Body) < min {
			return false, "body too short"
		}
		return true, ""
	}
}

// MentionOnlyReply rejects plain replies unless they cleared a higher
// engagement bar on their own.
func MentionOnlyReply(minScore int64) Predicate {
	return func(item *model.RawItem, score int64) (bool, string) {
		if strings.HasPrefix(item.Body, "@") && score < minScore {
			return false, "mention-only reply below engagement bar"
		}
		return true, ""
	}
}

var linkOnlyPattern = regexp.MustCompile(`^https?://\S+$`)

// LinkOnlyBody rejects items whose body is nothing but a link.
func LinkOnlyBody() Predicate {
	return func(item *model.RawItem, score int64) (bool, string) {
		if linkOnlyPattern.MatchString(strings.TrimSpace(item.Body)) {
			return false, "link-only body"
		}
		return true, ""
	}
}

// SpamPhrases rejects items matching any configured spam phrase,
// case-insensitive.
func SpamPhrases(phrases []string) Predicate {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		lowered = append(lowered, strings.ToLower(p))
	}
	return func(item *model.RawItem, score int64) (bool, string) {
		body := strings.ToLower(item.Body)
		for _, p := range lowered {
			if p != "" && strings.Contains(body, p) {
				return false, "spam phrase: " + p
			}
		}
		return true, ""
	}
}

// ForumTitleLength rejects forum posts whose title is too short to headline
// a story. Items from other platforms have no title and pass through.
func ForumTitleLength(min int) Predicate {
	return func(item *model.RawItem, score int64) (bool, string) {
		if item.Platform != model.PlatformForum {
			return true, ""
		}
		if len(item.Title) < min {
			return false, "title too short"
		}
		return true, ""
	}
}

// ForumDiscussionRatio rejects forum items with little discussion relative to
// their upvotes: comments per 100 upvotes must reach minRatio. Items from
// other platforms pass through untouched.
func ForumDiscussionRatio(minRatio float64) Predicate {
	return func(item *model.RawItem, score int64) (bool, string) {
		if item.Platform != model.PlatformForum {
			return true, ""
		}
		upvotes := item.Counter(model.CounterUpvotes)
		if upvotes < 100 {
			return true, ""
		}
		ratio := float64(item.Counter(model.CounterComments)) / (float64(upvotes) / 100.0)
		if ratio < minRatio {
			return false, "low discussion ratio"
		}
		return true, ""
	}
}
