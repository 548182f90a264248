// Package flowstate retains short-lived OAuth flow state: the PKCE code
// verifier issued at sign-in start, keyed by the one-time state value that
// travels through the redirect. Entries are consumed atomically so a
// replayed callback cannot reuse a verifier.
package flowstate

import (
	"context"
	"time"
)

// Store persists flow state between the authorize redirect and the callback
// landing. Consume is a one-time take: the second call for the same state
// returns ErrStateNotFound.
type Store interface {
	// Save retains the verifier under the given state for at most ttl.
	Save(ctx context.Context, state, verifier string, ttl time.Duration) error

	// Consume atomically retrieves and removes the verifier for state.
	// Returns ErrStateNotFound if the state is unknown, expired, or was
	// already consumed.
	Consume(ctx context.Context, state string) (string, error)
}
