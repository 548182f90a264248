package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/authbridge/pkg/logger"
)

// Recorder records sensitive actions. Recording is fire-and-forget: it never
// blocks the caller and never surfaces persistence failures to it; failures
// go to the observability sink (slog) instead.
type Recorder interface {
	// Record captures one action. actor is empty for unauthenticated
	// callers.
	Record(ctx context.Context, actor, action string, opts ...EventOption)
}

// Options tunes the async recorder's batching behavior.
type Options struct {
	BufferSize     int           // Max events queued in memory; new events are dropped (with a warning) when full.
	BatchSize      int           // Target events per storage write.
	BatchTimeout   time.Duration // Max time a partial batch waits before flushing.
	StorageTimeout time.Duration // Per-batch storage timeout.
}

// AsyncRecorder buffers events in memory and writes them in batches from a
// single background worker.
type AsyncRecorder struct {
	storage Storage
	log     *slog.Logger
	opts    Options

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// RecorderOption configures an AsyncRecorder.
type RecorderOption func(*AsyncRecorder)

// WithLogger sets the observability sink for persistence failures.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *AsyncRecorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOptions overrides batching defaults.
func WithOptions(opts Options) RecorderOption {
	return func(r *AsyncRecorder) {
		r.opts = opts
	}
}

// NewRecorder creates an async recorder and starts its worker.
func NewRecorder(storage Storage, opts ...RecorderOption) *AsyncRecorder {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	r := &AsyncRecorder{
		storage: storage,
		log:     logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.opts.BufferSize <= 0 {
		r.opts.BufferSize = 1000
	}
	if r.opts.BatchSize <= 0 {
		r.opts.BatchSize = 100
	}
	if r.opts.BatchTimeout <= 0 {
		r.opts.BatchTimeout = 100 * time.Millisecond
	}
	if r.opts.StorageTimeout <= 0 {
		r.opts.StorageTimeout = 5 * time.Second
	}

	r.events = make(chan Event, r.opts.BufferSize)
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record implements Recorder. It validates and enqueues the event; when the
// buffer is full or the recorder is closed the event is dropped with a
// warning, keeping the caller's path non-blocking.
func (r *AsyncRecorder) Record(ctx context.Context, actor, action string, opts ...EventOption) {
	event := NewEvent(actor, action, opts...)

	if err := event.Validate(); err != nil {
		r.log.ErrorContext(ctx, "invalid audit event",
			logger.Error(err), logger.Action(action), logger.Component("audit"))
		return
	}

	select {
	case r.events <- event:
	case <-r.done:
		r.log.WarnContext(ctx, "audit event dropped: recorder closed",
			logger.Action(action), logger.Component("audit"))
	default:
		r.log.WarnContext(ctx, "audit event dropped: buffer full",
			logger.Action(action), logger.Component("audit"))
	}
}

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()

	batch := make([]Event, 0, r.opts.BatchSize)
	ticker := time.NewTicker(r.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Detached context: caller request lifetimes must not cascade into
		// storage writes.
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.StorageTimeout)
		defer cancel()

		if err := r.storage.StoreBatch(ctx, batch); err != nil {
			r.log.Error("failed to persist audit events",
				logger.Error(err), slog.Int("count", len(batch)), logger.Component("audit"))
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-r.events:
			batch = append(batch, event)
			if len(batch) >= r.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case event := <-r.events:
					batch = append(batch, event)
					if len(batch) >= r.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close flushes queued events and stops the worker. The context bounds the
// shutdown; exceeding it may lose buffered events.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	closed := false
	r.closeOnce.Do(func() {
		close(r.done)
		closed = true
	})
	if !closed {
		return ErrRecorderClosed
	}

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Recorder = (*AsyncRecorder)(nil)

// SyncRecorder writes each event immediately on the caller's goroutine. It
// keeps the fire-and-forget contract: a persistence failure is logged, never
// surfaced. Suited to tests and low-volume deployments.
type SyncRecorder struct {
	storage Storage
	log     *slog.Logger
}

// NewSyncRecorder creates a synchronous recorder.
func NewSyncRecorder(storage Storage, opts ...func(*SyncRecorder)) *SyncRecorder {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	r := &SyncRecorder{storage: storage, log: logger.NewDiscard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithSyncLogger sets the observability sink for persistence failures.
func WithSyncLogger(l *slog.Logger) func(*SyncRecorder) {
	return func(r *SyncRecorder) {
		if l != nil {
			r.log = l
		}
	}
}

// Record implements Recorder.
func (r *SyncRecorder) Record(ctx context.Context, actor, action string, opts ...EventOption) {
	event := NewEvent(actor, action, opts...)

	if err := event.Validate(); err != nil {
		r.log.ErrorContext(ctx, "invalid audit event",
			logger.Error(err), logger.Action(action), logger.Component("audit"))
		return
	}

	if err := r.storage.StoreBatch(ctx, []Event{event}); err != nil {
		r.log.ErrorContext(ctx, "failed to persist audit event",
			logger.Error(err), logger.Action(action), logger.Component("audit"))
	}
}

var _ Recorder = (*SyncRecorder)(nil)

// NoopRecorder discards all events. Useful as a default when auditing is
// not wired.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, string, string, ...EventOption) {}

var _ Recorder = NoopRecorder{}
