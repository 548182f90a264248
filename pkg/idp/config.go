package idp

import "time"

type Config struct {
	BaseURL    string `env:"IDP_BASE_URL,required"` // BaseURL is the root of the provider's auth API, e.g. "https://auth.example.com".
	AnonKey    string `env:"IDP_ANON_KEY,required"` // AnonKey is the public API key sent with every request.
	ServiceKey string `env:"IDP_SERVICE_KEY"`       // ServiceKey authorizes admin endpoints (identity lookups); optional for clients that never provision profiles.

	OAuthClientID string        `env:"IDP_OAUTH_CLIENT_ID"`               // OAuthClientID identifies this application at the provider's token endpoint.
	StateTTL      time.Duration `env:"IDP_STATE_TTL" envDefault:"10m"`    // StateTTL bounds how long a started OAuth flow may stay pending.
	HTTPTimeout   time.Duration `env:"IDP_HTTP_TIMEOUT" envDefault:"10s"` // HTTPTimeout bounds every provider round trip.
}
