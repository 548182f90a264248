package authz

import (
	"fmt"
	"strings"
)

// rule is one grant in the shared table. allows is the in-process rendering;
// sqlFragment is the storage-boundary rendering of the identical condition.
// The unauthenticated deny is structural in both renderings: a missing
// subject matches no grant, and auth.uid() is NULL for anonymous callers.
type rule struct {
	name        string
	allows      func(s *Subject, owner string, elevated []string) bool
	sqlFragment func(ownerCol string, elevated []string) string
}

// grantRules is the single source of truth for who may touch an owned
// resource. Order matters: first match wins in Check.
var grantRules = []rule{
	{
		name: "owner",
		allows: func(s *Subject, owner string, _ []string) bool {
			return owner != "" && s.ID == owner
		},
		sqlFragment: func(ownerCol string, _ []string) string {
			return fmt.Sprintf("%s = (select auth.uid())::text", ownerCol)
		},
	},
	{
		name: "elevated-role",
		allows: func(s *Subject, _ string, elevated []string) bool {
			for _, role := range elevated {
				if role != "" && s.Role == role {
					return true
				}
			}
			return false
		},
		sqlFragment: func(_ string, elevated []string) string {
			quoted := make([]string, 0, len(elevated))
			for _, role := range elevated {
				if role != "" {
					quoted = append(quoted, "'"+strings.ReplaceAll(role, "'", "''")+"'")
				}
			}
			if len(quoted) == 0 {
				return "false"
			}
			return fmt.Sprintf("(select auth.jwt()->>'role') in (%s)", strings.Join(quoted, ", "))
		},
	},
}
