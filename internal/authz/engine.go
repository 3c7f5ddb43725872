package authz

import "fmt"

// Machine-stable decision reasons.
const (
	ReasonGranted           = "granted"
	ReasonNoRequirement     = "no_requirement"
	ReasonRoleMismatch      = "role_mismatch"
	ReasonPermissionMissing = "permission_missing"
	ReasonUnknownRole       = "unknown_role"
)

type requirementKind int

const (
	requireNothing requirementKind = iota
	requireRole
	requirePermission
)

// Requirement is the authorization condition a route declares: nothing
// beyond authentication, equality with a single role, or membership of
// a permission in the principal's grant set.
type Requirement struct {
	kind requirementKind
	role Role
	perm Permission
}

// NoRequirement admits any authenticated principal.
func NoRequirement() Requirement {
	return Requirement{kind: requireNothing}
}

// RoleEquals requires the principal's role to equal the given role.
func RoleEquals(role Role) Requirement {
	return Requirement{kind: requireRole, role: role}
}

// HasPermission requires the principal's role to grant the permission.
func HasPermission(p Permission) Requirement {
	return Requirement{kind: requirePermission, perm: p}
}

// String renders the requirement for logs and problem details.
func (r Requirement) String() string {
	switch r.kind {
	case requireRole:
		return fmt.Sprintf("role=%s", r.role)
	case requirePermission:
		return fmt.Sprintf("permission=%s", r.perm)
	default:
		return "none"
	}
}

// Decision is the transient outcome of a single authorization check.
// It is produced per request and never persisted.
type Decision struct {
	Allow  bool
	Reason string
}

// Engine evaluates requirements against the immutable registry. It
// always returns a decision; the caller chooses the HTTP consequence.
type Engine struct {
	registry *Registry
}

// NewEngine constructs an Engine over the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the engine's grant table for principal summaries.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Authorize decides whether a principal holding the given role
// satisfies the requirement. The registry is write-once, so the
// decision is deterministic for a fixed (role, requirement) pair
// within a process lifetime.
func (e *Engine) Authorize(role Role, req Requirement) Decision {
	switch req.kind {
	case requireNothing:
		return Decision{Allow: true, Reason: ReasonNoRequirement}
	case requireRole:
		if role == req.role {
			return Decision{Allow: true, Reason: ReasonGranted}
		}
		return Decision{Allow: false, Reason: ReasonRoleMismatch}
	case requirePermission:
		if !e.registry.KnowsRole(role) {
			return Decision{Allow: false, Reason: ReasonUnknownRole}
		}
		if e.registry.HasPermission(role, req.perm) {
			return Decision{Allow: true, Reason: ReasonGranted}
		}
		return Decision{Allow: false, Reason: ReasonPermissionMissing}
	default:
		return Decision{Allow: false, Reason: ReasonPermissionMissing}
	}
}
