package draftstore

import (
	"context"
	"sync"
	"time"

	"caseflow/internal/intake/form"
	"caseflow/pkg/sentinel"
)

// InMemoryStore keeps drafts in process memory. Suitable for development
// and tests; a restart loses every in-flight wizard.
type InMemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]entry
	ttl    time.Duration
}

type entry struct {
	draft     *form.Draft
	expiresAt time.Time
}

// NewInMemoryStore creates an empty store. A non-positive ttl disables
// expiry.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		drafts: make(map[string]entry),
		ttl:    ttl,
	}
}

func (s *InMemoryStore) Save(_ context.Context, draft *form.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{draft: draft.Clone()}
	if s.ttl > 0 {
		e.expiresAt = time.Now().Add(s.ttl)
	}
	s.drafts[draft.ID] = e
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*form.Draft, error) {
	s.mu.RLock()
	e, ok := s.drafts[id]
	s.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.drafts, id)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	return e.draft.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}
