package audit

import "errors"

var (
	// ErrEventValidation is returned when an event lacks required fields.
	ErrEventValidation = errors.New("audit event validation failed: action is required")

	// ErrAccessDenied is returned when a caller may not read the requested
	// audit events.
	ErrAccessDenied = errors.New("access to audit events denied")

	// ErrRecorderClosed is returned by Close when the recorder was already
	// shut down.
	ErrRecorderClosed = errors.New("audit recorder is closed")
)
