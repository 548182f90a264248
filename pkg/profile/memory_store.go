package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Storage for tests and local development. It
// reproduces the database guarantees the synchronizer depends on: atomic
// get-or-create and strictly increasing UpdatedAt.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, subject string) (*Profile, error) {
	if subject == "" {
		return nil, ErrInvalidSubject
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[subject]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetOrCreate(_ context.Context, seed Profile) (*Profile, bool, error) {
	if seed.Subject == "" {
		return nil, false, ErrInvalidSubject
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[seed.Subject]; ok {
		return &existing, false, nil
	}

	now := s.now()
	seed.CreatedAt = now
	seed.UpdatedAt = now
	s.profiles[seed.Subject] = seed
	return &seed, true, nil
}

func (s *MemoryStore) Update(_ context.Context, subject string, partial Partial) (*Profile, error) {
	if subject == "" {
		return nil, ErrInvalidSubject
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[subject]
	if !ok {
		return nil, ErrProfileNotFound
	}

	if partial.Email != nil {
		p.Email = *partial.Email
	}
	if partial.DisplayName != nil {
		p.DisplayName = *partial.DisplayName
	}
	if partial.AvatarURL != nil {
		p.AvatarURL = *partial.AvatarURL
	}

	// UpdatedAt must advance strictly even when the clock has not.
	now := s.now()
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now

	s.profiles[subject] = p
	return &p, nil
}

// Delete removes a profile, emulating the upstream identity-deletion
// cascade. Test helper.
func (s *MemoryStore) Delete(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, subject)
}

var _ Storage = (*MemoryStore)(nil)
