// Package sanitizer normalizes user-supplied identity attributes before
// they are compared or persisted.
package sanitizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var dotRuns = regexp.MustCompile(`\.{2,}`)

// NormalizeEmail case-folds and trims an email address and collapses
// consecutive dots in the local part. Case folding rather than plain
// lowercasing keeps non-ASCII addresses comparable. Invalid shapes are
// returned folded but otherwise as-is so validation errors surface
// downstream instead of being masked here.
func NormalizeEmail(email string) string {
	// Casers are stateful, so one is created per call.
	email = cases.Fold().String(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = dotRuns.ReplaceAllString(local, ".")
	local = strings.Trim(local, ".")

	return local + "@" + domain
}
