package authflow

// Config holds the module's redirect targets and cookie behavior.
type Config struct {
	// OAuthRedirectURL is the callback URL registered with the identity
	// provider; OAuth starts send the user there after consent.
	OAuthRedirectURL string `env:"AUTHFLOW_OAUTH_REDIRECT_URL,required"`
	// EmailRedirectURL is where confirmation and recovery emails land.
	EmailRedirectURL string `env:"AUTHFLOW_EMAIL_REDIRECT_URL,required"`
	// CookieSecure marks the session cookies Secure; disable only for
	// local development over plain HTTP.
	CookieSecure bool `env:"AUTHFLOW_COOKIE_SECURE" envDefault:"true"`
}
