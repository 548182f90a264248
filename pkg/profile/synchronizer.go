package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/authbridge/pkg/audit"
	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/sanitizer"
)

// Synchronizer keeps local profiles consistent with verified identity
// claims. Creation is lazy: the first successful authentication for a
// subject provisions its row from the provider's current claims.
type Synchronizer struct {
	storage  Storage
	provider idp.Provider
	recorder audit.Recorder
	log      *slog.Logger
}

// SynchronizerOption configures a Synchronizer during construction.
type SynchronizerOption func(*Synchronizer)

// WithAuditRecorder wires profile mutations into the audit trail.
func WithAuditRecorder(r audit.Recorder) SynchronizerOption {
	return func(s *Synchronizer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger configures the logger for the synchronizer.
func WithLogger(l *slog.Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSynchronizer creates a synchronizer over the given storage and
// provider client.
func NewSynchronizer(storage Storage, provider idp.Provider, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		storage:  storage,
		provider: provider,
		recorder: audit.NoopRecorder{},
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the profile for subject, provisioning it from the
// upstream identity record when absent. StatusNotFound means the provider
// itself no longer holds the identity - a surfaced condition distinct from
// "not yet created". Safe under concurrent first-time calls: storage
// uniqueness guarantees exactly one row, and a losing caller observes the
// winner's row as StatusFound.
func (s *Synchronizer) GetOrCreate(ctx context.Context, subject string) (Result, error) {
	if subject == "" {
		return Result{}, ErrInvalidSubject
	}

	if p, err := s.storage.Get(ctx, subject); err == nil {
		return Result{Status: StatusFound, Profile: p}, nil
	} else if !errors.Is(err, ErrProfileNotFound) {
		return Result{}, fmt.Errorf("failed to look up profile: %w", err)
	}

	identity, err := s.provider.GetIdentity(ctx, subject)
	if err != nil {
		if errors.Is(err, idp.ErrIdentityNotFound) {
			return Result{Status: StatusNotFound}, nil
		}
		return Result{}, fmt.Errorf("failed to fetch identity record: %w", err)
	}

	seed := Profile{
		Subject:     subject,
		Email:       sanitizer.NormalizeEmail(identity.Email),
		DisplayName: identity.DisplayName(),
		AvatarURL:   identity.AvatarURL(),
	}

	p, created, err := s.storage.GetOrCreate(ctx, seed)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create profile: %w", err)
	}

	if created {
		s.recorder.Record(ctx, subject, "profile.created",
			audit.WithResource("profile", subject),
			audit.WithAfter(p),
		)
		return Result{Status: StatusCreated, Profile: p}, nil
	}
	return Result{Status: StatusFound, Profile: p}, nil
}

// Update merges the partial into the subject's profile. Provided fields
// overwrite; omitted fields are left unchanged - a merge can never null out
// a field. UpdatedAt advances strictly on success.
func (s *Synchronizer) Update(ctx context.Context, subject string, partial Partial) (Result, error) {
	if subject == "" {
		return Result{}, ErrInvalidSubject
	}

	if partial.Email != nil {
		normalized := sanitizer.NormalizeEmail(*partial.Email)
		partial.Email = &normalized
	}

	before, err := s.storage.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return Result{Status: StatusNotFound}, nil
		}
		return Result{}, fmt.Errorf("failed to look up profile: %w", err)
	}

	p, err := s.storage.Update(ctx, subject, partial)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			// Deleted between lookup and update; the upstream cascade wins.
			return Result{Status: StatusNotFound}, nil
		}
		return Result{}, fmt.Errorf("failed to update profile: %w", err)
	}

	s.recorder.Record(ctx, subject, "profile.updated",
		audit.WithResource("profile", subject),
		audit.WithBefore(before),
		audit.WithAfter(p),
	)

	return Result{Status: StatusUpdated, Profile: p}, nil
}

// ApplyIdentityEvent performs passive sync from an upstream
// identity-attribute change notification. Email is always overwritten from
// the upstream source of truth; display name and avatar only when the
// notification carries a non-empty value. A missing profile is created; a
// concurrent duplicate creation is silently absorbed.
func (s *Synchronizer) ApplyIdentityEvent(ctx context.Context, event idp.IdentityEvent) error {
	if event.Subject == "" {
		return ErrInvalidSubject
	}

	email := sanitizer.NormalizeEmail(event.Email)

	_, err := s.storage.Get(ctx, event.Subject)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		seed := Profile{
			Subject:     event.Subject,
			Email:       email,
			DisplayName: event.DisplayName,
			AvatarURL:   event.AvatarURL,
		}
		p, created, err := s.storage.GetOrCreate(ctx, seed)
		if err != nil {
			return fmt.Errorf("failed to provision profile from notification: %w", err)
		}
		if created {
			s.recorder.Record(ctx, event.Subject, "profile.created",
				audit.WithResource("profile", event.Subject),
				audit.WithAfter(p),
			)
			return nil
		}
		// A concurrent creator won; fall through and merge the notification
		// into the winner's row.
	case err != nil:
		return fmt.Errorf("failed to look up profile: %w", err)
	}

	partial := Partial{Email: &email}
	if event.DisplayName != "" {
		partial.DisplayName = &event.DisplayName
	}
	if event.AvatarURL != "" {
		partial.AvatarURL = &event.AvatarURL
	}

	before, _ := s.storage.Get(ctx, event.Subject)

	p, err := s.storage.Update(ctx, event.Subject, partial)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			// Row deleted after the notification was emitted; upstream
			// deletion cascade wins.
			s.log.InfoContext(ctx, "passive sync skipped: profile gone",
				logger.Subject(event.Subject), logger.Component("profile"))
			return nil
		}
		return fmt.Errorf("failed to sync profile: %w", err)
	}

	s.recorder.Record(ctx, event.Subject, "profile.synced",
		audit.WithResource("profile", event.Subject),
		audit.WithBefore(before),
		audit.WithAfter(p),
	)
	return nil
}
