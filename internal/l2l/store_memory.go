package l2l

import (
	"context"
	"sort"
	"sync"

	"caseflow/pkg/sentinel"
)

// InMemoryStore keeps processes in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	processes map[string]Process
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{processes: make(map[string]Process)}
}

func (s *InMemoryStore) Create(_ context.Context, process Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.processes[process.ID]; exists {
		return sentinel.ErrConflict
	}
	s.processes[process.ID] = process
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	process, ok := s.processes[id]
	if !ok {
		return Process{}, sentinel.ErrNotFound
	}
	return process, nil
}

func (s *InMemoryStore) Update(_ context.Context, process Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes[process.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.processes[process.ID] = process
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Process, 0, len(s.processes))
	for _, p := range s.processes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
