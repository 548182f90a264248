package profile

import "errors"

var (
	// ErrProfileNotFound is returned by storage when no row exists for the
	// subject.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidSubject is returned for empty subject identifiers.
	ErrInvalidSubject = errors.New("subject identifier is required")
)
