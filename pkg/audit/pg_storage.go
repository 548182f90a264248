package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStorage persists audit events in PostgreSQL. Batches go through
// CopyFrom; the audit_events table is protected by the row-level policies
// rendered from the shared authz rule table, and the only write path is the
// definer-rights log_audit_event procedure applied in migrations.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage wraps an established connection pool.
func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	if pool == nil {
		panic("audit: pool cannot be nil")
	}
	return &PgStorage{pool: pool}
}

func (s *PgStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		before, err := marshalSnapshot(e.Before)
		if err != nil {
			return fmt.Errorf("failed to marshal before snapshot: %w", err)
		}
		after, err := marshalSnapshot(e.After)
		if err != nil {
			return fmt.Errorf("failed to marshal after snapshot: %w", err)
		}

		rows = append(rows, []any{
			e.ID,
			nullable(e.Actor),
			e.Action,
			nullable(e.ResourceType),
			nullable(e.ResourceID),
			before,
			after,
			e.CreatedAt,
		})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"audit_events"},
		[]string{"id", "actor", "action", "resource_type", "resource_id", "before", "after", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to store audit batch: %w", err)
	}
	return nil
}

func (s *PgStorage) ListByActor(ctx context.Context, actor string, limit int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		select id, coalesce(actor, ''), action, coalesce(resource_type, ''),
		       coalesce(resource_id, ''), before, after, created_at
		from audit_events
		where actor = $1
		order by created_at desc
		limit $2`, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.ResourceType, &e.ResourceID, &before, &after, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Before = unmarshalSnapshot(before)
		e.After = unmarshalSnapshot(after)
		events = append(events, e)
	}
	return events, rows.Err()
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalSnapshot(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var (
	_ Storage     = (*PgStorage)(nil)
	_ ReadStorage = (*PgStorage)(nil)
)
