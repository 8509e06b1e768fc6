package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/model"
)

// scriptedAdapter fails a fixed number of searches before succeeding.
type scriptedAdapter struct {
	platform  string
	failures  int
	transient bool
	items     []model.RawItem

	calls int
}

func (a *scriptedAdapter) Platform() string { return a.platform }

func (a *scriptedAdapter) Search(ctx context.Context, query model.SearchQuery) ([]model.RawItem, error) {
	a.calls++
	if a.calls <= a.failures {
		if a.transient {
			return nil, collector.NewTransientError(a.platform, "search", fmt.Errorf("timeout"))
		}
		return nil, collector.NewPermanentError(a.platform, "search", fmt.Errorf("bad request"))
	}
	return a.items, nil
}

func (a *scriptedAdapter) FetchThread(ctx context.Context, conversationId string, authorHandle string, limit int) ([]model.RawItem, error) {
	return nil, nil
}

func (a *scriptedAdapter) FetchComments(ctx context.Context, itemId string, limit int) ([]model.RawComment, error) {
	return nil, nil
}

func (a *scriptedAdapter) FetchItem(ctx context.Context, itemId string) (*model.RawItem, error) {
	return nil, nil
}

// newTestScheduler replaces sleeping with recording.
func newTestScheduler(adapters map[string]collector.SourceAdapter) (*QueryScheduler, *[]time.Duration) {
	s := NewQueryScheduler(adapters, 3*time.Second, 2*time.Second, 3)
	slept := &[]time.Duration{}
	s.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return s, slept
}

func microQuery(q string) model.SearchQuery {
	return model.SearchQuery{Platform: model.PlatformMicroblog, Query: q}
}

func TestSchedulerRetriesTransientWithBackoff(t *testing.T) {
	adapter := &scriptedAdapter{
		platform: model.PlatformMicroblog, failures: 2, transient: true,
		items: []model.RawItem{{SourceId: "1"}},
	}
	s, slept := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformMicroblog: adapter,
	})

	results := s.Run(context.Background(), []model.SearchQuery{microQuery("storm")})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 3, results[0].Attempts)
	require.Len(t, results[0].Items, 1)

	// Backoff doubles: 2s then 4s. The platform delay sleeps interleave
	// with the backoff sleeps, so filter for the backoff values.
	assert.Contains(t, *slept, 2*time.Second)
	assert.Contains(t, *slept, 4*time.Second)
}

func TestSchedulerDoesNotRetryPermanent(t *testing.T) {
	adapter := &scriptedAdapter{platform: model.PlatformMicroblog, failures: 10, transient: false}
	s, _ := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformMicroblog: adapter,
	})

	results := s.Run(context.Background(), []model.SearchQuery{microQuery("storm")})
	require.Error(t, results[0].Err)
	assert.Equal(t, 1, adapter.calls)
}

func TestSchedulerGivesUpAfterMaxRetries(t *testing.T) {
	adapter := &scriptedAdapter{platform: model.PlatformMicroblog, failures: 10, transient: true}
	s, _ := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformMicroblog: adapter,
	})

	results := s.Run(context.Background(), []model.SearchQuery{microQuery("storm")})
	require.Error(t, results[0].Err)
	assert.True(t, collector.IsTransient(results[0].Err))
	assert.Equal(t, 3, adapter.calls)
}

func TestSchedulerIsolatesQueryFailures(t *testing.T) {
	failing := &scriptedAdapter{platform: model.PlatformMicroblog, failures: 10, transient: true}
	healthy := &scriptedAdapter{platform: model.PlatformForum,
		items: []model.RawItem{{SourceId: "abc123"}}}
	s, _ := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformMicroblog: failing,
		model.PlatformForum:     healthy,
	})

	// The failing middle query must not stop the third from running.
	results := s.Run(context.Background(), []model.SearchQuery{
		{Platform: model.PlatformForum, Query: "tifu"},
		microQuery("storm"),
		{Platform: model.PlatformForum, Query: "maliciouscompliance"},
	})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, healthy.calls)
}

func TestSchedulerSpacesCallsPerPlatform(t *testing.T) {
	adapter := &scriptedAdapter{platform: model.PlatformForum,
		items: []model.RawItem{{SourceId: "abc123"}}}
	s, slept := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformForum: adapter,
	})

	// Pin the clock so elapsed time between the two calls is zero and the
	// scheduler has to sleep the full delay.
	fixed := time.Date(2024, 1, 2, 19, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Run(context.Background(), []model.SearchQuery{
		{Platform: model.PlatformForum, Query: "tifu"},
		{Platform: model.PlatformForum, Query: "maliciouscompliance"},
	})
	require.Len(t, *slept, 1)
	assert.Equal(t, 3*time.Second, (*slept)[0])
}

func TestSchedulerUnknownPlatform(t *testing.T) {
	s, _ := newTestScheduler(map[string]collector.SourceAdapter{})
	results := s.Run(context.Background(), []model.SearchQuery{{Platform: "myspace", Query: "x"}})
	require.Error(t, results[0].Err)
}

func TestSchedulerStopsOnCancelledContext(t *testing.T) {
	adapter := &scriptedAdapter{platform: model.PlatformForum,
		items: []model.RawItem{{SourceId: "abc123"}}}
	s, _ := newTestScheduler(map[string]collector.SourceAdapter{
		model.PlatformForum: adapter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := s.Run(ctx, []model.SearchQuery{
		{Platform: model.PlatformForum, Query: "tifu"},
	})
	require.Error(t, results[0].Err)
	assert.Equal(t, 0, adapter.calls)
}
