package session

import (
	"net/http"
	"strings"
)

// Transport extracts credential material from an inbound request. Returning
// an empty string means the request carries no credential through this
// transport; that is the normal anonymous case, not an error.
type Transport interface {
	AccessToken(r *http.Request) string
	RefreshToken(r *http.Request) string
}

// HeaderTransport reads the access token from the Authorization header.
// Refresh tokens never travel in headers.
type HeaderTransport struct{}

func (HeaderTransport) AccessToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (HeaderTransport) RefreshToken(*http.Request) string { return "" }

// CookieTransport reads tokens from HTTP cookies.
type CookieTransport struct {
	AccessCookie  string
	RefreshCookie string
}

// NewCookieTransport creates a cookie transport with the conventional
// cookie names.
func NewCookieTransport() CookieTransport {
	return CookieTransport{
		AccessCookie:  "sb-access-token",
		RefreshCookie: "sb-refresh-token",
	}
}

func (t CookieTransport) AccessToken(r *http.Request) string {
	return cookieValue(r, t.AccessCookie)
}

func (t CookieTransport) RefreshToken(r *http.Request) string {
	return cookieValue(r, t.RefreshCookie)
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// CompositeTransport tries each transport in order and returns the first
// non-empty value.
type CompositeTransport []Transport

func (ts CompositeTransport) AccessToken(r *http.Request) string {
	for _, t := range ts {
		if token := t.AccessToken(r); token != "" {
			return token
		}
	}
	return ""
}

func (ts CompositeTransport) RefreshToken(r *http.Request) string {
	for _, t := range ts {
		if token := t.RefreshToken(r); token != "" {
			return token
		}
	}
	return ""
}
