package idp

import "time"

// Claims are the verified attributes the provider returns for a credential.
// They are only ever produced by a server-side round trip, never by decoding
// request-supplied tokens locally.
type Claims struct {
	Subject  string         `json:"id"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	Metadata map[string]any `json:"user_metadata"`
}

// Session is the provider-issued token material for an authenticated
// subject. Expiry is owned by the provider; this value never outlives the
// request it serves.
type Session struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int64   `json:"expires_in"`
	Claims       *Claims `json:"user,omitempty"`
}

// Identity is the provider's own user record, fetched through the admin
// surface. It is the source of truth for profile provisioning.
type Identity struct {
	Subject   string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// DisplayName returns the display name carried in identity metadata, or an
// empty string when absent.
func (i *Identity) DisplayName() string {
	return metadataString(i.Metadata, "display_name", "full_name", "name")
}

// AvatarURL returns the avatar reference carried in identity metadata, or an
// empty string when absent.
func (i *Identity) AvatarURL() string {
	return metadataString(i.Metadata, "avatar_url", "picture")
}

// IdentityEvent is an upstream identity-attribute change notification,
// consumed by the profile synchronizer's passive sync path.
type IdentityEvent struct {
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func metadataString(md map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := md[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
