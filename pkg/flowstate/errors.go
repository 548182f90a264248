package flowstate

import "errors"

var (
	// ErrStateNotFound is returned when a state value is unknown, expired,
	// or was already consumed by an earlier callback landing.
	ErrStateNotFound = errors.New("flow state not found or expired")

	// ErrInvalidState is returned for empty state or verifier values.
	ErrInvalidState = errors.New("state and verifier must be non-empty")
)
