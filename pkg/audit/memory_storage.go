package audit

import (
	"context"
	"sync"
)

// MemoryStorage is an in-process Storage/ReadStorage for tests.
type MemoryStorage struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *MemoryStorage) ListByActor(_ context.Context, actor string, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].Actor == actor {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

// All returns every stored event in insertion order. Test helper.
func (s *MemoryStorage) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

var (
	_ Storage     = (*MemoryStorage)(nil)
	_ ReadStorage = (*MemoryStorage)(nil)
)
