package collector

import (
	"context"
	"fmt"

	"github.com/viralmux/viralmux/model"
)

// SourceAdapter executes searches and lookups against one external platform.
// Adapters are stateless except for platform specific endpoint failover,
// which is adapter-local. Every call is bounded by a timeout, and a failed
// call returns an empty result plus a structured error, never silently
// truncated data presented as success.
type SourceAdapter interface {
	Platform() string

	Search(ctx context.Context, query model.SearchQuery) ([]model.RawItem, error)

	// FetchThread returns sibling items sharing conversationId authored by
	// authorHandle, bounded to limit.
	FetchThread(ctx context.Context, conversationId string, authorHandle string, limit int) ([]model.RawItem, error)

	FetchComments(ctx context.Context, itemId string, limit int) ([]model.RawComment, error)

	// FetchItem looks up one item by its platform id, used by single item
	// import.
	FetchItem(ctx context.Context, itemId string) (*model.RawItem, error)
}

// AdapterError is the structured error adapters return. Transient errors
// (timeout, 5xx, rate limit) are retried by the scheduler, everything else
// fails the query immediately.
type AdapterError struct {
	Platform  string
	Op        string
	Transient bool
	Err       error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a retryable failure.
func NewTransientError(platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Transient: true, Err: err}
}

// NewPermanentError wraps a failure that retrying will not fix, e.g. a
// malformed response body.
func NewPermanentError(platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Transient: false, Err: err}
}

// IsTransient reports whether err is a retryable adapter error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	ae, ok := err.(*AdapterError)
	return ok && ae.Transient
}
