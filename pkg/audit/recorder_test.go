package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authbridge/pkg/audit"
)

// blockingStorage lets tests control when batch writes complete.
type blockingStorage struct {
	mu      sync.Mutex
	events  []audit.Event
	failing bool
}

func (s *blockingStorage) StoreBatch(_ context.Context, events []audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("storage down")
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *blockingStorage) stored() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestAsyncRecorder_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("event reaches storage", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{}
		rec := audit.NewRecorder(storage, audit.WithOptions(audit.Options{
			BatchTimeout: 10 * time.Millisecond,
		}))

		rec.Record(ctx, "subj-1", "profile.update",
			audit.WithResource("profile", "subj-1"),
			audit.WithBefore(map[string]any{"email": "old@example.com"}),
			audit.WithAfter(map[string]any{"email": "new@example.com"}),
		)
		require.NoError(t, rec.Close(ctx))

		events := storage.stored()
		require.Len(t, events, 1)
		assert.Equal(t, "subj-1", events[0].Actor)
		assert.Equal(t, "profile.update", events[0].Action)
		assert.Equal(t, "profile", events[0].ResourceType)
		assert.NotEqual(t, time.Time{}, events[0].CreatedAt)
	})

	t.Run("unauthenticated actor is allowed", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{}
		rec := audit.NewRecorder(storage, audit.WithOptions(audit.Options{BatchTimeout: 10 * time.Millisecond}))

		rec.Record(ctx, "", "signin.failed")
		require.NoError(t, rec.Close(ctx))

		events := storage.stored()
		require.Len(t, events, 1)
		assert.Empty(t, events[0].Actor)
	})

	t.Run("storage failure never reaches the caller", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{failing: true}
		rec := audit.NewRecorder(storage, audit.WithOptions(audit.Options{BatchTimeout: 5 * time.Millisecond}))

		assert.NotPanics(t, func() {
			rec.Record(ctx, "subj-1", "profile.update")
		})
		require.NoError(t, rec.Close(ctx))
	})

	t.Run("missing action dropped as invalid", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{}
		rec := audit.NewRecorder(storage)

		rec.Record(ctx, "subj-1", "")
		require.NoError(t, rec.Close(ctx))
		assert.Empty(t, storage.stored())
	})

	t.Run("close flushes queued events", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{}
		rec := audit.NewRecorder(storage, audit.WithOptions(audit.Options{
			BatchSize:    1000,
			BatchTimeout: time.Hour, // flushing must come from Close, not the ticker
		}))

		for range 25 {
			rec.Record(ctx, "subj-1", "profile.read")
		}
		require.NoError(t, rec.Close(ctx))
		assert.Len(t, storage.stored(), 25)
	})

	t.Run("record after close does not block", func(t *testing.T) {
		t.Parallel()

		storage := &blockingStorage{}
		rec := audit.NewRecorder(storage)
		require.NoError(t, rec.Close(ctx))

		done := make(chan struct{})
		go func() {
			rec.Record(ctx, "subj-1", "profile.read")
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked after Close")
		}
	})

	t.Run("double close reports closed", func(t *testing.T) {
		t.Parallel()

		rec := audit.NewRecorder(&blockingStorage{})
		require.NoError(t, rec.Close(ctx))
		assert.ErrorIs(t, rec.Close(ctx), audit.ErrRecorderClosed)
	})
}
