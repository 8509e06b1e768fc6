package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/model"
	Logger "github.com/viralmux/viralmux/utils/log"
)

// QueryResult is the outcome of one scheduled query. Err is nil on success,
// even when the query matched nothing.
type QueryResult struct {
	Query    model.SearchQuery
	Items    []model.RawItem
	Attempts int
	Err      error
}

// QueryScheduler runs the configured queries in order, spacing calls
// against the same platform and retrying transient failures with bounded
// exponential backoff. One failing query never aborts the run; its result
// carries the error and the schedule moves on.
type QueryScheduler struct {
	adapters map[string]collector.SourceAdapter

	delay    time.Duration
	maxRetry int
	backoff  time.Duration

	// sleep is injectable so tests do not wait on real time.
	sleep func(ctx context.Context, d time.Duration) error

	lastCall map[string]time.Time
	now      func() time.Time
}

func NewQueryScheduler(adapters map[string]collector.SourceAdapter, delay, backoff time.Duration, maxRetry int) *QueryScheduler {
	return &QueryScheduler{
		adapters: adapters,
		delay:    delay,
		maxRetry: maxRetry,
		backoff:  backoff,
		sleep:    sleepContext,
		lastCall: map[string]time.Time{},
		now:      time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes every query and returns one result per query, in input
// order. Cancelling the context stops the schedule between calls.
func (s *QueryScheduler) Run(ctx context.Context, queries []model.SearchQuery) []QueryResult {
	results := make([]QueryResult, 0, len(queries))
	for _, query := range queries {
		if ctx.Err() != nil {
			results = append(results, QueryResult{Query: query, Err: ctx.Err()})
			continue
		}
		results = append(results, s.runOne(ctx, query))
	}
	return results
}

func (s *QueryScheduler) runOne(ctx context.Context, query model.SearchQuery) QueryResult {
	result := QueryResult{Query: query}

	adapter, ok := s.adapters[query.Platform]
	if !ok {
		result.Err = fmt.Errorf("no adapter for platform %s", query.Platform)
		return result
	}

	for attempt := 1; attempt <= s.maxRetry; attempt++ {
		if err := s.waitForPlatform(ctx, query.Platform); err != nil {
			result.Err = err
			return result
		}

		result.Attempts = attempt
		items, err := adapter.Search(ctx, query)
		s.lastCall[query.Platform] = s.now()
		if err == nil {
			result.Items = items
			result.Err = nil
			return result
		}

		result.Err = err
		if !collector.IsTransient(err) {
			Logger.Log.Errorf("query %q on %s failed permanently: %v", query.Query, query.Platform, err)
			return result
		}
		if attempt == s.maxRetry {
			break
		}

		wait := s.backoff * (1 << (attempt - 1))
		Logger.Log.Warnf("query %q on %s failed (attempt %d/%d), retrying in %v: %v",
			query.Query, query.Platform, attempt, s.maxRetry, wait, err)
		if err := s.sleep(ctx, wait); err != nil {
			result.Err = err
			return result
		}
	}

	Logger.Log.Errorf("query %q on %s exhausted %d attempts: %v",
		query.Query, query.Platform, s.maxRetry, result.Err)
	return result
}

// waitForPlatform enforces the minimum spacing between two calls against
// the same platform. Different platforms never wait on each other.
func (s *QueryScheduler) waitForPlatform(ctx context.Context, platform string) error {
	last, ok := s.lastCall[platform]
	if !ok {
		return nil
	}
	elapsed := s.now().Sub(last)
	if elapsed >= s.delay {
		return nil
	}
	return s.sleep(ctx, s.delay-elapsed)
}
