// Package callback reconciles an OAuth redirect landing into a terminal
// sign-in outcome. Each landing runs its own small state machine:
//
//	Pending → {ExchangingCode | FallbackLookup} → {Succeeded | Failed}
//
// The reconciler is replay-safe: landing on the same URL twice (duplicate
// mount, back navigation) drops into the fallback session lookup instead of
// re-attempting the consumed code exchange, and still reaches a terminal
// state without raising.
package callback

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/dmitrymomot/authbridge/pkg/flowstate"
	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
	"github.com/dmitrymomot/authbridge/pkg/statemachine"
)

// Reconciliation states.
const (
	StatePending        statemachine.State = "pending"
	StateExchangingCode statemachine.State = "exchanging_code"
	StateFallbackLookup statemachine.State = "fallback_lookup"
	StateSucceeded      statemachine.State = "succeeded"
	StateFailed         statemachine.State = "failed"
)

const (
	eventProviderError  statemachine.Event = "provider_error"
	eventCodePresent    statemachine.Event = "code_present"
	eventNothingToDo    statemachine.Event = "nothing_to_do"
	eventExchanged      statemachine.Event = "exchanged"
	eventExchangeFailed statemachine.Event = "exchange_failed"
	eventSessionFound   statemachine.Event = "session_found"
	eventSessionMissing statemachine.Event = "session_missing"
)

// failureNoSession is the terminal message when neither the code exchange
// nor the fallback lookup produced a session.
const failureNoSession = "no session obtained"

// Landing is one redirect arrival at the callback endpoint.
type Landing struct {
	// URL is the full browser-visible landing URL including query params.
	URL string
	// RefreshToken, when present, enables the fallback lookup of an
	// already-established session.
	RefreshToken string
}

// Outcome is the terminal result of one reconciliation.
type Outcome struct {
	// State is StateSucceeded or StateFailed, or the state the run was
	// abandoned in when the context was torn down mid-flight.
	State statemachine.State
	// Message is empty on success and human-readable on failure.
	Message string
	// Session is set only on success.
	Session *idp.Session
	// CleanURL is the landing URL with the transient code, error,
	// error_description and state parameters stripped, suitable for
	// replacing the visible URL without navigation.
	CleanURL string
	// RedirectTo and RedirectDelay schedule the follow-up navigation.
	// RedirectTo is empty when the run was abandoned.
	RedirectTo    string
	RedirectDelay time.Duration
}

// Reconciler converts redirect landings into terminal outcomes.
type Reconciler struct {
	provider idp.Provider
	flow     flowstate.Store
	cfg      Config
	log      *slog.Logger
}

// ReconcilerOption configures a Reconciler during construction.
type ReconcilerOption func(*Reconciler)

// WithLogger configures the logger for the reconciler.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReconciler creates a reconciler over the given provider client and
// flow-state store.
func NewReconciler(provider idp.Provider, flow flowstate.Store, cfg Config, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		provider: provider,
		flow:     flow,
		cfg:      cfg,
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newMachine() *statemachine.Machine {
	return statemachine.MustNew(StatePending,
		statemachine.WithTransition(StatePending, StateFailed, eventProviderError, nil),
		statemachine.WithTransition(StatePending, StateExchangingCode, eventCodePresent, nil),
		statemachine.WithTransition(StatePending, StateFallbackLookup, eventNothingToDo, nil),
		statemachine.WithTransition(StateExchangingCode, StateSucceeded, eventExchanged, nil),
		statemachine.WithTransition(StateExchangingCode, StateFallbackLookup, eventExchangeFailed, nil),
		statemachine.WithTransition(StateFallbackLookup, StateSucceeded, eventSessionFound, nil),
		statemachine.WithTransition(StateFallbackLookup, StateFailed, eventSessionMissing, nil),
		statemachine.WithTerminal(StateSucceeded, StateFailed),
	)
}

// Reconcile runs the state machine for one landing. Transitions run one at a
// time; context teardown mid-flight abandons the run without scheduling a
// redirect. Provider failures never escape as errors - they become the
// Failed terminal state.
func (r *Reconciler) Reconcile(ctx context.Context, landing Landing) Outcome {
	m := newMachine()

	parsed, err := url.Parse(landing.URL)
	if err != nil {
		_ = m.Fire(ctx, eventNothingToDo, nil)
		_ = m.Fire(ctx, eventSessionMissing, nil)
		return r.finish(m, nil, "malformed landing URL", landing.URL)
	}

	query := parsed.Query()
	cleanURL := stripTransientParams(parsed)

	if errCode := query.Get("error"); errCode != "" {
		// The provider refused the flow; a code exchange is never attempted.
		message := query.Get("error_description")
		if message == "" {
			message = errCode
		}
		r.log.InfoContext(ctx, "sign-in refused by provider",
			logger.Component("callback"), slog.String("error", errCode))
		_ = m.Fire(ctx, eventProviderError, nil)
		return r.finish(m, nil, message, cleanURL)
	}

	if code := query.Get("code"); code != "" {
		_ = m.Fire(ctx, eventCodePresent, nil)

		sess, exchangeErr := r.exchange(ctx, code, query.Get("state"))
		if abandoned(ctx) {
			return r.abandon(m, cleanURL)
		}
		if exchangeErr == nil {
			_ = m.Fire(ctx, eventExchanged, nil)
			return r.finish(m, sess, "", cleanURL)
		}
		// Consumed code, verifier mismatch, or provider refusal: an earlier
		// landing may already have established a session, so fall back.
		r.log.InfoContext(ctx, "code exchange failed, trying fallback lookup",
			logger.Component("callback"), logger.Error(exchangeErr))
		_ = m.Fire(ctx, eventExchangeFailed, nil)
	} else {
		_ = m.Fire(ctx, eventNothingToDo, nil)
	}

	sess, lookupErr := r.lookup(ctx, landing.RefreshToken)
	if abandoned(ctx) {
		return r.abandon(m, cleanURL)
	}
	if lookupErr == nil {
		_ = m.Fire(ctx, eventSessionFound, nil)
		return r.finish(m, sess, "", cleanURL)
	}

	_ = m.Fire(ctx, eventSessionMissing, nil)
	return r.finish(m, nil, failureNoSession, cleanURL)
}

// exchange consumes the one-time verifier stored at flow start and trades
// the authorization code for a session. An already-consumed state value
// means this landing is a replay; the error routes it into fallback.
func (r *Reconciler) exchange(ctx context.Context, code, state string) (*idp.Session, error) {
	verifier, err := r.flow.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	return r.provider.ExchangeCode(ctx, code, verifier)
}

func (r *Reconciler) lookup(ctx context.Context, refreshToken string) (*idp.Session, error) {
	if refreshToken == "" {
		return nil, idp.ErrSessionNotFound
	}
	return r.provider.GetSession(ctx, refreshToken)
}

func (r *Reconciler) finish(m *statemachine.Machine, sess *idp.Session, message, cleanURL string) Outcome {
	out := Outcome{
		State:    m.Current(),
		Message:  message,
		Session:  sess,
		CleanURL: cleanURL,
	}
	switch out.State {
	case StateSucceeded:
		out.RedirectTo = r.cfg.SuccessURL
		out.RedirectDelay = r.cfg.SuccessDelay
	case StateFailed:
		out.RedirectTo = r.cfg.FailureURL
		out.RedirectDelay = r.cfg.FailureDelay
	}
	return out
}

func (r *Reconciler) abandon(m *statemachine.Machine, cleanURL string) Outcome {
	return Outcome{
		State:    m.Current(),
		Message:  "reconciliation abandoned",
		CleanURL: cleanURL,
	}
}

func abandoned(ctx context.Context) bool {
	return ctx.Err() != nil
}

// stripTransientParams removes the one-shot OAuth parameters so a refresh of
// the visible URL cannot re-attempt the exchange.
func stripTransientParams(u *url.URL) string {
	query := u.Query()
	for _, p := range []string{"code", "error", "error_description", "state"} {
		query.Del(p)
	}
	clean := *u
	clean.RawQuery = query.Encode()
	return clean.String()
}
