package idp

import "context"

// Provider is the consumed surface of the external identity provider. All
// methods are synchronous round trips; failures come back as the package's
// normalized errors.
type Provider interface {
	// VerifyToken resolves verified claims for an access token by calling
	// the provider's userinfo endpoint. The token itself is never decoded
	// locally.
	VerifyToken(ctx context.Context, accessToken string) (*Claims, error)

	// ExchangeCode converts a one-time authorization code into a session.
	// verifier is the PKCE code verifier retained at flow start; pass an
	// empty string when none was retained (e.g. replayed landings).
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)

	// GetSession retrieves an already-established session via refresh grant.
	GetSession(ctx context.Context, refreshToken string) (*Session, error)

	// GetIdentity fetches the provider's own user record through the admin
	// surface. Returns ErrIdentityNotFound when the record is gone.
	GetIdentity(ctx context.Context, subject string) (*Identity, error)

	// SignInWithPassword authenticates with email/password.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new identity; redirectURL is where the provider
	// sends the confirmation landing.
	SignUp(ctx context.Context, email, password, redirectURL string) (*Session, error)

	// OAuthStartURL builds the provider's authorize URL for the named
	// upstream provider, generating and retaining PKCE flow state.
	OAuthStartURL(ctx context.Context, provider, redirectURL string) (string, error)

	// SignOut revokes the session behind the access token.
	SignOut(ctx context.Context, accessToken string) error

	// ResetPassword starts the provider's password recovery flow.
	ResetPassword(ctx context.Context, email, redirectURL string) error
}
