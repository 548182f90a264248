package idp

import "errors"

// Every provider-specific failure is normalized into one of these before it
// leaves the package, so consumers never branch on provider error shapes.
var (
	// ErrVerificationFailed covers expired, malformed, revoked, or absent
	// credentials. Callers treat it as the anonymous result, not a fault.
	ErrVerificationFailed = errors.New("credential verification failed")

	// ErrExchangeFailed covers invalid, already-consumed, or
	// verifier-mismatched authorization codes.
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrSessionNotFound means no established session could be retrieved.
	ErrSessionNotFound = errors.New("no session obtained")

	// ErrIdentityNotFound means the provider no longer holds a record for
	// the subject. Distinct from "not yet provisioned" and always surfaced.
	ErrIdentityNotFound = errors.New("identity record not found at provider")

	// ErrAdminAccessDenied means the provider rejected the admin credential
	// (missing, wrong, or revoked service key). A configuration fault, never
	// conflated with a missing identity record.
	ErrAdminAccessDenied = errors.New("admin access rejected by provider")

	// ErrInvalidCredentials covers rejected email/password sign-in attempts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProviderUnavailable covers network failures and provider-side 5xx
	// responses. Not auto-retried; retry is left to the caller.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
