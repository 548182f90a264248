// Package session resolves verified sessions from inbound HTTP requests.
// A session exists only for the request it serves; nothing here is
// persisted. Verification is always a round trip to the identity provider,
// never a local decode of request-supplied tokens.
package session

import "github.com/dmitrymomot/authbridge/pkg/idp"

// Session is the verified identity attached to a single request.
type Session struct {
	Subject  string
	Email    string
	Role     string
	Metadata map[string]any

	// AccessToken is the opaque credential used for provider-side calls
	// performed later in the same request. It is never interpreted locally.
	AccessToken string

	// RefreshToken is the token material for provider-side session lookup,
	// populated by the optional secondary fetch. May be empty even for a
	// verified session.
	RefreshToken string
}

// IsElevated reports whether the session carries one of the given elevated
// role names.
func (s *Session) IsElevated(elevatedRoles []string) bool {
	if s == nil {
		return false
	}
	for _, role := range elevatedRoles {
		if role != "" && s.Role == role {
			return true
		}
	}
	return false
}

func fromClaims(claims *idp.Claims, accessToken string) *Session {
	return &Session{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		Metadata:    claims.Metadata,
		AccessToken: accessToken,
	}
}
