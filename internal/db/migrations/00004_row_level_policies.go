package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/authbridge/pkg/authz"
	"github.com/dmitrymomot/authbridge/pkg/config"
)

func init() {
	goose.AddMigrationContext(upRowLevelPolicies, downRowLevelPolicies)
}

// policyTargets lists the tables protected by the shared authz rule table.
// audit_events is append-only through log_audit_event, so end users only
// ever get SELECT on it.
var policyTargets = []authz.PolicyTarget{
	{Table: "profiles", OwnerColumn: "subject", Commands: []string{"select", "insert", "update"}},
	{Table: "audit_events", OwnerColumn: "actor", Commands: []string{"select"}},
}

// upRowLevelPolicies renders the shared rule table into CREATE POLICY
// statements and applies them. Rendering at migration time from the same
// rules Check evaluates keeps the two enforcement points identical.
func upRowLevelPolicies(ctx context.Context, tx *sql.Tx) error {
	var cfg authz.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	evaluator := authz.NewEvaluator(cfg)

	for _, target := range policyTargets {
		for _, stmt := range evaluator.PolicyStatements(target) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func downRowLevelPolicies(ctx context.Context, tx *sql.Tx) error {
	var cfg authz.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	evaluator := authz.NewEvaluator(cfg)

	for _, target := range policyTargets {
		for _, stmt := range evaluator.DropPolicyStatements(target) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}
