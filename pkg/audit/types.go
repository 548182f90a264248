package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single append-only audit record. Events are created once and
// never mutated or deleted by this module.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Actor        string    `json:"actor,omitempty"` // empty when the action was unauthenticated
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Before       any       `json:"before,omitempty"` // structured snapshot prior to the action
	After        any       `json:"after,omitempty"`  // structured snapshot after the action
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the event carries the required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return ErrEventValidation
	}
	return nil
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(actor, action string, opts ...EventOption) Event {
	event := Event{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    action,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// EventOption applies optional fields to an Event during recording.
type EventOption func(*Event)

// WithResource attaches the acted-on resource.
func WithResource(resourceType, resourceID string) EventOption {
	return func(e *Event) {
		e.ResourceType = resourceType
		e.ResourceID = resourceID
	}
}

// WithBefore attaches the pre-action snapshot.
func WithBefore(snapshot any) EventOption {
	return func(e *Event) {
		e.Before = snapshot
	}
}

// WithAfter attaches the post-action snapshot.
func WithAfter(snapshot any) EventOption {
	return func(e *Event) {
		e.After = snapshot
	}
}
