package statemachine

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to, and event must be non-empty")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be empty")
	ErrNoTransition      = errors.New("no transition available")
	ErrTerminalState     = errors.New("machine is in a terminal state")
)
