package dedup

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/viralmux/viralmux/model"
	"github.com/viralmux/viralmux/store"
	Logger "github.com/viralmux/viralmux/utils/log"
)

const (
	ingestedKeyPrefix = "viralmux:ingested:"

	// Cached ingestion marks expire, the persistent store stays the
	// source of truth.
	ingestedKeyTtl = 7 * 24 * time.Hour
)

// Deduplicator answers whether an item was already ingested. The persistent
// store is authoritative; the optional redis cache only short-circuits
// lookups for recently ingested keys. When the store cannot be reached the
// answer is unknown and the caller must skip the item rather than risk a
// duplicate.
type Deduplicator struct {
	store store.StoryStore
	cache *redis.Client
}

func NewDeduplicator(store store.StoryStore, cache *redis.Client) *Deduplicator {
	return &Deduplicator{store: store, cache: cache}
}

// SeenBefore reports whether the item's dedup key was already ingested.
// A non-nil error means the answer is unknown.
func (d *Deduplicator) SeenBefore(ctx context.Context, key model.DedupKey) (bool, error) {
	if d.cache != nil {
		n, err := d.cache.Exists(ctx, ingestedKeyPrefix+key.String()).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil {
			Logger.Log.Warnf("dedup cache lookup failed, falling through to store: %v", err)
		}
	}
	return d.store.Exists(ctx, key)
}

// MarkIngested records the key in the cache after a successful save. Cache
// failures are logged and ignored, the store row already guards identity.
func (d *Deduplicator) MarkIngested(ctx context.Context, key model.DedupKey) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, ingestedKeyPrefix+key.String(), "1", ingestedKeyTtl).Err(); err != nil {
		Logger.Log.Warnf("dedup cache mark failed: %v", err)
	}
}
