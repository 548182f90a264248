// Package authz evaluates access to per-user resources. The rule table is
// declared once, as data, and rendered twice: as the in-process Check
// function called on every protected operation, and as the row-level
// security predicates applied at the storage boundary. Both renderings
// derive from the same rules, so they cannot diverge.
//
// The in-process check is defense in depth; the storage-layer policy remains
// the authoritative enforcement point.
package authz

// Subject identifies the caller as verified by the identity provider. A nil
// Subject means the request is unauthenticated.
type Subject struct {
	ID   string
	Role string
}

// Permission names the requested operation, e.g. "profiles.read". The base
// rule table grants by ownership and role only; permission-specific grants
// are a deliberate extension point and must not be assumed present.
type Permission string

const (
	PermissionProfileRead  Permission = "profiles.read"
	PermissionProfileWrite Permission = "profiles.write"
	PermissionAuditRead    Permission = "audit.read"
)

// Decision is the result of an authorization check.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

type Config struct {
	ElevatedRoles []string `env:"AUTHZ_ELEVATED_ROLES" envSeparator:"," envDefault:"service_role"` // ElevatedRoles are non-ownership roles exempt from ownership checks.
}

// Evaluator is a pure decision function over the shared rule table. It holds
// no mutable state and is safe for concurrent use.
type Evaluator struct {
	elevatedRoles []string
}

// NewEvaluator creates an evaluator granting the configured elevated roles.
func NewEvaluator(cfg Config) *Evaluator {
	return &Evaluator{elevatedRoles: cfg.ElevatedRoles}
}

// Check decides whether subject may act on a resource owned by
// resourceOwner. First match wins:
//
//  1. unauthenticated -> deny
//  2. subject owns the resource -> allow
//  3. subject carries an elevated role -> allow
//  4. otherwise -> deny
//
// No side effects, no I/O; cheap enough to call on every operation.
func (e *Evaluator) Check(subject *Subject, resourceOwner string, _ Permission) Decision {
	if subject == nil || subject.ID == "" {
		return Deny
	}
	for _, r := range grantRules {
		if r.allows(subject, resourceOwner, e.elevatedRoles) {
			return Allow
		}
	}
	// Extension point for future role/subscription-based grants.
	return Deny
}
