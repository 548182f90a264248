package profile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authbridge/pkg/pg"
)

// PgStore persists profiles in PostgreSQL through the storage-side
// procedures defined in migrations. get_or_create_profile and
// update_profile run with definer rights behind the same row-level policies
// the authz rule table renders, so the database remains the authoritative
// enforcement point.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps an established connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("profile: pool cannot be nil")
	}
	return &PgStore{pool: pool}
}

const profileColumns = "subject, email, display_name, avatar_url, created_at, updated_at"

func (s *PgStore) Get(ctx context.Context, subject string) (*Profile, error) {
	if subject == "" {
		return nil, ErrInvalidSubject
	}

	row := s.pool.QueryRow(ctx,
		"select "+profileColumns+" from profiles where subject = $1", subject)

	var p Profile
	if err := row.Scan(&p.Subject, &p.Email, &p.DisplayName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (s *PgStore) GetOrCreate(ctx context.Context, seed Profile) (*Profile, bool, error) {
	if seed.Subject == "" {
		return nil, false, ErrInvalidSubject
	}

	row := s.pool.QueryRow(ctx,
		"select "+profileColumns+", created from get_or_create_profile($1, $2, $3, $4)",
		seed.Subject, seed.Email, seed.DisplayName, seed.AvatarURL)

	var p Profile
	var created bool
	if err := row.Scan(&p.Subject, &p.Email, &p.DisplayName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt, &created); err != nil {
		if pg.IsForeignKeyViolationError(err) {
			// The upstream identity record disappeared between the claims
			// fetch and the insert.
			return nil, false, ErrProfileNotFound
		}
		return nil, false, fmt.Errorf("failed to get or create profile: %w", err)
	}
	return &p, created, nil
}

func (s *PgStore) Update(ctx context.Context, subject string, partial Partial) (*Profile, error) {
	if subject == "" {
		return nil, ErrInvalidSubject
	}

	row := s.pool.QueryRow(ctx,
		"select "+profileColumns+" from update_profile($1, $2, $3, $4)",
		subject, partial.Email, partial.DisplayName, partial.AvatarURL)

	var p Profile
	if err := row.Scan(&p.Subject, &p.Email, &p.DisplayName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &p, nil
}

var _ Storage = (*PgStore)(nil)
