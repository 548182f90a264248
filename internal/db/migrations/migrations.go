// Package migrations embeds the schema migrations applied at startup via
// pg.Migrate. The row-level policies are applied by a Go migration that
// renders them from the authz rule table, so the database predicates can
// never drift from the in-process checks.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
