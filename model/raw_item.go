package model

import (
	"fmt"
	"time"
)

// Platform tags. The set of supported platforms is closed, adapters are
// selected by tag at construction time.
const (
	PlatformForum     = "reddit"
	PlatformMicroblog = "microblog"
)

// Counter names shared across the pipeline. Each platform only fills the
// counters it actually has.
const (
	CounterLikes    = "likes"
	CounterReposts  = "reposts"
	CounterReplies  = "replies"
	CounterQuotes   = "quotes"
	CounterUpvotes  = "upvotes"
	CounterComments = "comments"
	CounterAwards   = "awards"
)

// SearchQuery is one configured discovery query against one platform.
// Immutable, defined by configuration.
type SearchQuery struct {
	Platform      string `yaml:"platform"`
	Query         string `yaml:"query"`
	Category      string `yaml:"category"`
	MinEngagement int64  `yaml:"min_engagement"`
}

// MediaRef is one attachment on a raw item.
type MediaRef struct {
	Url    string `json:"url"`
	Kind   string `json:"kind"` // image / video / gif / link
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

/*

RawItem is one piece of platform content as returned by a source adapter.

Platform: platform tag, see constants above
SourceId: id unique within the platform, combined with Platform it forms
	the dedup key
ConversationId: thread/conversation id when the platform has one, empty
	otherwise
Counters: raw engagement counters keyed by the counter names above

A RawItem is read-only once produced by an adapter. It never crosses the
pipeline boundary, only the converted story does.
*/
type RawItem struct {
	Platform       string
	SourceId       string
	AuthorId       string
	AuthorHandle   string
	AuthorName     string
	Verified       bool
	// Title is set by platforms that have one (the forum), empty otherwise.
	Title          string
	Body           string
	CreatedAt      time.Time
	Counters       map[string]int64
	ConversationId string
	Media          []MediaRef
	PermaLink      string
}

// Counter returns the named counter, zero when absent.
func (r *RawItem) Counter(name string) int64 {
	if r.Counters == nil {
		return 0
	}
	return r.Counters[name]
}

// DedupKey identifies the item for at-most-once ingestion.
func (r *RawItem) DedupKey() DedupKey {
	return DedupKey{Platform: r.Platform, SourceId: r.SourceId}
}

// RawComment is one comment/reply fetched under an item.
type RawComment struct {
	Author           string `json:"author"`
	Body             string `json:"body"`
	Score            int64  `json:"score"`
	IsOriginalPoster bool   `json:"is_original_poster"`
}

// DedupKey is the composite identity checked against the persistent store.
// No two stored stories may share one.
type DedupKey struct {
	Platform string
	SourceId string
}

// String renders the platform-prefixed source id the store is queried by,
// e.g. "reddit_abc123".
func (k DedupKey) String() string {
	return fmt.Sprintf("%s_%s", k.Platform, k.SourceId)
}

// ThreadShape classifies a reconstructed thread group.
type ThreadShape string

const (
	ShapeSingle       ThreadShape = "single"
	ShapeNarrative    ThreadShape = "narrative-thread"
	ShapeConversation ThreadShape = "multi-participant"
)

// ThreadGroup is an ordered sequence of raw items sharing a conversation id,
// sorted ascending by creation time. Rebuilt, never edited in place.
type ThreadGroup struct {
	Items []RawItem
	Shape ThreadShape
}

// Lead returns the first item of the group. Groups are never empty.
func (g *ThreadGroup) Lead() *RawItem {
	return &g.Items[0]
}
