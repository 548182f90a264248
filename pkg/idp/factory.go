package idp

import (
	"sync"

	"github.com/dmitrymomot/authbridge/pkg/flowstate"
)

// Factory memoizes client construction. Client() is safe to call from any
// request without coordination: the first call builds the client, every
// later call returns the same instance, and construction itself performs no
// I/O so repeating it would be harmless anyway.
type Factory struct {
	once   sync.Once
	client *Client

	cfg    Config
	states flowstate.Store
	opts   []Option
}

// NewFactory prepares a memoizing factory for the given configuration.
func NewFactory(cfg Config, states flowstate.Store, opts ...Option) *Factory {
	return &Factory{cfg: cfg, states: states, opts: opts}
}

// Client returns the memoized provider client.
func (f *Factory) Client() Provider {
	f.once.Do(func() {
		f.client = NewClient(f.cfg, f.states, f.opts...)
	})
	return f.client
}
