package audit

import "context"

// Storage persists audit events. Implementations must treat the table as
// append-only.
type Storage interface {
	// StoreBatch writes events atomically: either all succeed or all fail.
	StoreBatch(ctx context.Context, events []Event) error
}

// ReadStorage lists persisted events. Access control happens in Reader, not
// here; implementations return whatever matches the filter.
type ReadStorage interface {
	// ListByActor returns events for one actor, newest first, at most limit.
	ListByActor(ctx context.Context, actor string, limit int) ([]Event, error)
}
