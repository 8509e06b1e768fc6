package store

import (
	"context"

	"github.com/viralmux/viralmux/model"
)

// StoryStore persists converted stories and answers dedup lookups. Exists
// must be checked before Save; a Save racing another writer is still safe
// because the dedup id carries a unique index.
type StoryStore interface {
	// Exists reports whether a story with the given dedup key was ever
	// saved, soft deleted rows included.
	Exists(ctx context.Context, key model.DedupKey) (bool, error)

	Save(ctx context.Context, story *model.Story) error

	// GetByDedupId returns the stored story, nil when absent.
	GetByDedupId(ctx context.Context, dedupId string) (*model.Story, error)
}
