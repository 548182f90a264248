package idp

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/authbridge/pkg/flowstate"
	"github.com/dmitrymomot/authbridge/pkg/logger"
)

// Ensure Client implements Provider.
var _ Provider = (*Client)(nil)

// Client talks to a GoTrue-style identity provider over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	oauth  *oauth2.Config
	states flowstate.Store
	log    *slog.Logger
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The provider API key
// header is still injected on every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger configures the logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient constructs a provider client. states retains PKCE flow state
// between OAuthStartURL and the callback landing; construction performs no
// I/O and is safe to repeat.
func NewClient(cfg Config, states flowstate.Store, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		states: states,
		log:    logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.HTTPTimeout}
	} else {
		// Supplied clients are copied so the caller's object is never
		// mutated and a reused client never accumulates key transports.
		clone := *c.http
		c.http = &clone
	}
	// Every request carries the provider API key, including the token
	// endpoint calls issued by the oauth2 package.
	c.http.Transport = &apiKeyTransport{base: c.http.Transport, key: cfg.AnonKey}

	base := strings.TrimRight(cfg.BaseURL, "/")
	c.oauth = &oauth2.Config{
		ClientID: cfg.OAuthClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return c
}

// VerifyToken resolves verified claims via the provider's userinfo endpoint.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, ErrVerificationFailed
	}

	var claims Claims
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, accessToken, &claims); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, apiErr.Message())
		}
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrVerificationFailed
	}
	return &claims, nil
}

// ExchangeCode converts an authorization code into a session via the
// provider's token endpoint, binding the PKCE verifier when one is supplied.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	if code == "" {
		return nil, ErrExchangeFailed
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	tok, err := c.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", ErrExchangeFailed, retrieveErr.ErrorDescription)
		}
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	sess := &Session{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		sess.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}

	// Secondary claims fetch; its failure never invalidates the exchange.
	if claims, err := c.VerifyToken(ctx, tok.AccessToken); err == nil {
		sess.Claims = claims
	} else {
		c.log.WarnContext(ctx, "claims fetch after code exchange failed",
			logger.Error(err), logger.Component("idp"))
	}

	return sess, nil
}

// GetSession retrieves an already-established session via refresh grant.
func (c *Client) GetSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrSessionNotFound
	}

	query := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}

	var sess Session
	if err := c.do(ctx, http.MethodPost, "/token", query, body, "", &sess); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, apiErr.Message())
		}
		return nil, err
	}

	if sess.AccessToken == "" {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// GetIdentity fetches the provider's user record through the admin surface.
func (c *Client) GetIdentity(ctx context.Context, subject string) (*Identity, error) {
	if subject == "" {
		return nil, ErrIdentityNotFound
	}
	if c.cfg.ServiceKey == "" {
		return nil, fmt.Errorf("%w: service key not configured", ErrAdminAccessDenied)
	}

	var identity Identity
	err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(subject), nil, nil, c.cfg.ServiceKey, &identity)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			// Only the provider's 404 means the record is gone. Any other
			// admin-surface rejection is a credential or request fault and
			// must not masquerade as a deleted identity.
			if apiErr.Status == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, apiErr.Message())
			}
			return nil, fmt.Errorf("%w: %s", ErrAdminAccessDenied, apiErr.Message())
		}
		return nil, err
	}

	if identity.Subject == "" {
		return nil, ErrIdentityNotFound
	}
	return &identity, nil
}

// SignInWithPassword authenticates with email/password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	query := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}

	var sess Session
	if err := c.do(ctx, http.MethodPost, "/token", query, body, "", &sess); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message())
		}
		return nil, err
	}
	return &sess, nil
}

// SignUp registers a new identity with the provider.
func (c *Client) SignUp(ctx context.Context, email, password, redirectURL string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	query := url.Values{}
	if redirectURL != "" {
		query.Set("redirect_to", redirectURL)
	}
	body := map[string]string{"email": email, "password": password}

	var sess Session
	if err := c.do(ctx, http.MethodPost, "/signup", query, body, "", &sess); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("sign-up rejected: %s", apiErr.Message())
		}
		return nil, err
	}
	return &sess, nil
}

// OAuthStartURL builds the authorize URL for an upstream OAuth provider,
// generating one-time state and a PKCE verifier retained in the flow store.
func (c *Client) OAuthStartURL(ctx context.Context, provider, redirectURL string) (string, error) {
	if provider == "" {
		return "", errors.New("idp: oauth provider name is required")
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	if err := c.states.Save(ctx, state, verifier, c.cfg.StateTTL); err != nil {
		return "", fmt.Errorf("failed to retain flow state: %w", err)
	}

	u, err := url.Parse(c.oauth.Endpoint.AuthURL)
	if err != nil {
		return "", fmt.Errorf("failed to build authorize url: %w", err)
	}
	q := u.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	q.Set("code_challenge_method", "s256")
	if redirectURL != "" {
		q.Set("redirect_to", redirectURL)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrVerificationFailed
	}

	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil, accessToken, nil); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s", ErrVerificationFailed, apiErr.Message())
		}
		return err
	}
	return nil
}

// ResetPassword starts the provider's password recovery flow.
func (c *Client) ResetPassword(ctx context.Context, email, redirectURL string) error {
	if email == "" {
		return ErrInvalidCredentials
	}

	query := url.Values{}
	if redirectURL != "" {
		query.Set("redirect_to", redirectURL)
	}
	body := map[string]string{"email": email}

	if err := c.do(ctx, http.MethodPost, "/recover", query, body, "", nil); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("password reset rejected: %s", apiErr.Message())
		}
		return err
	}
	return nil
}

// do performs one provider round trip. Non-2xx responses below 500 come back
// as *apiError for the caller to map; 5xx and transport failures are joined
// with ErrProviderUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return errors.Join(ErrProviderUnavailable, fmt.Errorf("provider returned %d", resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Join(ErrProviderUnavailable, fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

// apiError is the provider's error payload for non-2xx responses.
type apiError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Status, e.Message())
}

// Message returns the most descriptive text the provider supplied.
func (e *apiError) Message() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Msg != "":
		return e.Msg
	case e.Code != "":
		return e.Code
	default:
		return "unknown error"
	}
}

// apiKeyTransport injects the provider API key header on every request.
type apiKeyTransport struct {
	base http.RoundTripper
	key  string
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return base.RoundTrip(clone)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
