// Package statemachine provides a small finite state machine used to drive
// single-shot flows such as the OAuth callback reconciliation. Transitions
// run one at a time per machine; an action failure aborts its transition.
package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a named state. String values are sufficient for the flows in
// this module.
type State string

func (s State) String() string { return string(s) }

// Event triggers a transition.
type Event string

func (e Event) String() string { return string(e) }

// Action executes side effects during a transition. Returning an error
// prevents the state change.
type Action func(ctx context.Context, from, to State, data any) error

// Transition defines a state change triggered by an event.
type Transition struct {
	From   State
	To     State
	Event  Event
	Action Action
}

// Machine is a thread-safe in-memory state machine. One transition completes
// before the next begins; callers in terminal states get ErrTerminalState
// for any further event.
type Machine struct {
	mu          sync.Mutex
	initial     State
	current     State
	transitions map[State]map[Event]Transition
	terminal    map[State]struct{}
}

// Option configures a machine during construction.
type Option func(*Machine) error

// WithTransition registers a transition. Duplicate (from, event) pairs are
// rejected to keep flows unambiguous.
func WithTransition(from, to State, event Event, action Action) Option {
	return func(m *Machine) error {
		if from == "" || to == "" || event == "" {
			return ErrInvalidTransition
		}
		byEvent, ok := m.transitions[from]
		if !ok {
			byEvent = make(map[Event]Transition)
			m.transitions[from] = byEvent
		}
		if _, exists := byEvent[event]; exists {
			return fmt.Errorf("%w: duplicate transition from %q on %q", ErrInvalidTransition, from, event)
		}
		byEvent[event] = Transition{From: from, To: to, Event: event, Action: action}
		return nil
	}
}

// WithTerminal marks states from which no further transitions are allowed.
func WithTerminal(states ...State) Option {
	return func(m *Machine) error {
		for _, s := range states {
			if s == "" {
				return ErrInvalidTransition
			}
			m.terminal[s] = struct{}{}
		}
		return nil
	}
}

// New creates a machine starting at the given initial state.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, ErrInvalidTransition
	}
	m := &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event]Transition),
		terminal:    make(map[State]struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew creates a machine and panics on misconfiguration. Flow definitions
// are static, so failures here are programming errors.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// InTerminal reports whether the machine has reached a terminal state.
func (m *Machine) InTerminal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.terminal[m.current]
	return ok
}

// Fire applies an event. The registered action, if any, runs before the
// state change and aborts it on error.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == "" {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.terminal[m.current]; ok {
		return fmt.Errorf("%w: %q", ErrTerminalState, m.current)
	}

	t, ok := m.transitions[m.current][event]
	if !ok {
		return fmt.Errorf("%w: from %q on %q", ErrNoTransition, m.current, event)
	}

	if t.Action != nil {
		if err := t.Action(ctx, m.current, t.To, data); err != nil {
			return fmt.Errorf("transition action failed: %w", err)
		}
	}

	m.current = t.To
	return nil
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
