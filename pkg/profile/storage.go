package profile

import "context"

// Storage persists profiles. Duplicate-create safety comes from the
// storage's own uniqueness guarantees, not from in-process locking:
// GetOrCreate must be atomic under concurrent first-time calls, and Update
// must advance UpdatedAt strictly on every successful call.
type Storage interface {
	// Get returns ErrProfileNotFound when no row exists.
	Get(ctx context.Context, subject string) (*Profile, error)

	// GetOrCreate atomically inserts the seed profile when no row exists
	// for its subject, or returns the existing row untouched. created
	// reports whether this call inserted the row; a caller losing a
	// concurrent race observes the winner's row with created == false.
	GetOrCreate(ctx context.Context, seed Profile) (p *Profile, created bool, err error)

	// Update merges the partial into the existing row and returns the
	// result. Returns ErrProfileNotFound when no row exists.
	Update(ctx context.Context, subject string, partial Partial) (*Profile, error)
}
