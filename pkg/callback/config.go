package callback

import "time"

// Config controls where a finished reconciliation sends the user and how
// long the outcome stays visible first.
type Config struct {
	// SuccessURL is the destination after a successful sign-in.
	SuccessURL string `env:"CALLBACK_SUCCESS_URL" envDefault:"/"`
	// FailureURL is the destination after a failed sign-in.
	FailureURL string `env:"CALLBACK_FAILURE_URL" envDefault:"/signin"`
	// SuccessDelay holds the success outcome on screen before redirecting.
	SuccessDelay time.Duration `env:"CALLBACK_SUCCESS_DELAY" envDefault:"1s"`
	// FailureDelay is longer so the failure message can be read.
	FailureDelay time.Duration `env:"CALLBACK_FAILURE_DELAY" envDefault:"3s"`
}
