package authz

import (
	"fmt"
	"strings"
)

// PolicyTarget describes one table protected by the shared rule table.
type PolicyTarget struct {
	Table       string
	OwnerColumn string
	// Commands lists the SQL commands the policy covers, e.g. SELECT,
	// INSERT, UPDATE. Append-only tables list SELECT only; writes go
	// through definer-rights procedures.
	Commands []string
}

// Predicate renders the rule table as a single boolean SQL expression over
// the given owner column.
func (e *Evaluator) Predicate(ownerCol string) string {
	frags := make([]string, 0, len(grantRules))
	for _, r := range grantRules {
		frags = append(frags, "("+r.sqlFragment(ownerCol, e.elevatedRoles)+")")
	}
	return strings.Join(frags, " or ")
}

// PolicyStatements renders CREATE POLICY statements for a target, one per
// command, all sharing the predicate derived from the rule table. The
// enabling ALTER TABLE statement is included so a migration can apply the
// result verbatim.
func (e *Evaluator) PolicyStatements(target PolicyTarget) []string {
	pred := e.Predicate(target.OwnerColumn)

	stmts := make([]string, 0, len(target.Commands)+1)
	stmts = append(stmts, fmt.Sprintf("alter table %s enable row level security;", target.Table))

	for _, cmd := range target.Commands {
		cmd = strings.ToLower(cmd)
		name := fmt.Sprintf("%s_%s_owner_or_elevated", target.Table, cmd)
		switch cmd {
		case "insert":
			// INSERT policies constrain new rows, which have no existing
			// owner to read; WITH CHECK applies the predicate to the
			// incoming row instead.
			stmts = append(stmts, fmt.Sprintf(
				"create policy %s on %s for insert with check (%s);",
				name, target.Table, pred))
		default:
			stmts = append(stmts, fmt.Sprintf(
				"create policy %s on %s for %s using (%s);",
				name, target.Table, cmd, pred))
		}
	}
	return stmts
}

// DropPolicyStatements renders the inverse of PolicyStatements for
// migration rollbacks.
func (e *Evaluator) DropPolicyStatements(target PolicyTarget) []string {
	stmts := make([]string, 0, len(target.Commands)+1)
	for _, cmd := range target.Commands {
		cmd = strings.ToLower(cmd)
		name := fmt.Sprintf("%s_%s_owner_or_elevated", target.Table, cmd)
		stmts = append(stmts, fmt.Sprintf("drop policy if exists %s on %s;", name, target.Table))
	}
	stmts = append(stmts, fmt.Sprintf("alter table %s disable row level security;", target.Table))
	return stmts
}
