package flowstate

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	verifier  string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, state, verifier string, ttl time.Duration) error {
	if state == "" || verifier == "" {
		return ErrInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state] = memoryEntry{verifier: verifier, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.entries, state)

	if s.now().After(entry.expiresAt) {
		return "", ErrStateNotFound
	}
	return entry.verifier, nil
}

var _ Store = (*MemoryStore)(nil)
