package store

import (
	"context"
	"sync"

	"github.com/viralmux/viralmux/model"
)

// FakeStore is an in-memory StoryStore for tests and dry runs.
type FakeStore struct {
	mu      sync.Mutex
	stories map[string]model.Story

	// When set, every call fails with this error. Used to exercise the
	// store-unavailable path.
	Err error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{stories: map[string]model.Story{}}
}

func (s *FakeStore) Exists(ctx context.Context, key model.DedupKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.stories[key.String()]
	return ok, nil
}

func (s *FakeStore) Save(ctx context.Context, story *model.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.stories[story.DedupId] = *story
	return nil
}

func (s *FakeStore) GetByDedupId(ctx context.Context, dedupId string) (*model.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	story, ok := s.stories[dedupId]
	if !ok {
		return nil, nil
	}
	return &story, nil
}

// Count returns the number of stored stories.
func (s *FakeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stories)
}
