package session

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authbridge/pkg/idp"
	"github.com/dmitrymomot/authbridge/pkg/logger"
)

// Resolver turns an inbound request's credentials into a verified session.
type Resolver struct {
	provider  idp.Provider
	transport Transport
	log       *slog.Logger
}

// ResolverOption configures a Resolver during construction.
type ResolverOption func(*Resolver)

// WithTransport overrides the credential transport. The default tries the
// Authorization header first, then cookies.
func WithTransport(t Transport) ResolverOption {
	return func(r *Resolver) {
		if t != nil {
			r.transport = t
		}
	}
}

// WithLogger configures the logger for the resolver.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver backed by the given provider client.
func NewResolver(provider idp.Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:  provider,
		transport: CompositeTransport{HeaderTransport{}, NewCookieTransport()},
		log:       logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the verified session for the request, or nil for the
// anonymous case. Every failure mode - absent credential, expired token,
// provider outage - resolves to nil; it is the normal result, cheap to
// produce repeatedly, never an exception. Client-supplied session payloads
// are never treated as authoritative: the subject comes exclusively from
// the provider's verified-claims round trip.
func (rs *Resolver) Resolve(r *http.Request) *Session {
	accessToken := rs.transport.AccessToken(r)
	if accessToken == "" {
		return nil
	}

	claims, err := rs.provider.VerifyToken(r.Context(), accessToken)
	if err != nil {
		rs.log.DebugContext(r.Context(), "session verification failed",
			logger.Error(err), logger.Component("session"))
		return nil
	}

	sess := fromClaims(claims, accessToken)

	// Secondary fetch of token material for later provider-side calls.
	// Its absence or failure does not invalidate the verified identity.
	sess.RefreshToken = rs.transport.RefreshToken(r)

	return sess
}
