package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in memory. Used in tests and in
// deployments where Kafka is the only durable sink.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
	all    []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, event)
	if event.UserID != "" {
		s.events[event.UserID] = append(s.events[event.UserID], event)
	}
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[userID]...), nil
}

// ListAll returns every recorded event; test helper.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.all...), nil
}
