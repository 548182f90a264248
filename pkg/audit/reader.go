package audit

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authbridge/pkg/authz"
)

const defaultListLimit = 100

// Reader exposes recorded events under the same rule table that guards
// profile access: a caller may read an actor's events only when it is that
// actor or carries an elevated role. The storage-layer policy enforces the
// identical restriction; this check is defense in depth.
type Reader struct {
	storage   ReadStorage
	evaluator *authz.Evaluator
}

// NewReader creates a reader over the given storage.
func NewReader(storage ReadStorage, evaluator *authz.Evaluator) *Reader {
	if storage == nil {
		panic("audit: read storage cannot be nil")
	}
	if evaluator == nil {
		panic("audit: evaluator cannot be nil")
	}
	return &Reader{storage: storage, evaluator: evaluator}
}

// ListByActor returns the newest events recorded for actor, at most limit
// (defaulting to 100). caller is the verified subject asking; nil means
// unauthenticated and is always denied.
func (r *Reader) ListByActor(ctx context.Context, caller *authz.Subject, actor string, limit int) ([]Event, error) {
	if r.evaluator.Check(caller, actor, authz.PermissionAuditRead) == authz.Deny {
		return nil, ErrAccessDenied
	}

	if limit <= 0 {
		limit = defaultListLimit
	}

	events, err := r.storage.ListByActor(ctx, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}
