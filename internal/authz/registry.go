package authz

import (
	"fmt"
	"sort"
)

// Registry is the immutable role-to-grant table. It is built once at
// startup and injected wherever authorization decisions are made, so
// tests can substitute fixture registries without process-wide state.
type Registry struct {
	grants map[Role][]Permission
	index  map[Role]map[Permission]struct{}
}

// NewRegistry copies the provided grant table into an immutable
// Registry. The input map is not retained.
func NewRegistry(grants map[Role][]Permission) *Registry {
	reg := &Registry{
		grants: make(map[Role][]Permission, len(grants)),
		index:  make(map[Role]map[Permission]struct{}, len(grants)),
	}
	for role, perms := range grants {
		owned := make([]Permission, len(perms))
		copy(owned, perms)
		reg.grants[role] = owned

		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		reg.index[role] = set
	}
	return reg
}

// DefaultRegistry returns the production grant table for the console.
func DefaultRegistry() *Registry {
	return NewRegistry(map[Role][]Permission{
		RoleAdministrator: {
			PermClientsView, PermClientsManage,
			PermEquipmentView, PermEquipmentManage,
			PermInvoicesView, PermInvoicesCreate, PermInvoicesEdit,
			PermRepairsView, PermRepairsManage,
			PermUsersView, PermUsersManage,
		},
		RoleTechnician: {
			PermClientsView,
			PermEquipmentView, PermEquipmentManage,
			PermRepairsView, PermRepairsManage,
		},
		RoleSecretary: {
			PermClientsView, PermClientsManage,
			PermEquipmentView,
			PermInvoicesView, PermInvoicesCreate,
			PermRepairsView,
		},
		RoleUser: {
			PermEquipmentView,
			PermRepairsView,
		},
	})
}

// Grants returns the ordered permission set for a role. The returned
// slice is a copy; callers may not mutate registry state through it.
func (r *Registry) Grants(role Role) []Permission {
	perms, ok := r.grants[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role's grant set contains the
// permission. Exact membership, no partial matches.
func (r *Registry) HasPermission(role Role, p Permission) bool {
	set, ok := r.index[role]
	if !ok {
		return false
	}
	_, ok = set[p]
	return ok
}

// KnowsRole reports whether the registry defines the role.
func (r *Registry) KnowsRole(role Role) bool {
	_, ok := r.grants[role]
	return ok
}

// KnowsPermission reports whether at least one role grants the
// permission.
func (r *Registry) KnowsPermission(p Permission) bool {
	for _, set := range r.index {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

// Roles returns the defined roles in sorted order.
func (r *Registry) Roles() []Role {
	roles := make([]Role, 0, len(r.grants))
	for role := range r.grants {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// CheckRequirements verifies that every declared route requirement
// resolves against the registry: a RoleEquals requirement must name a
// defined role and a HasPermission requirement must name a permission
// granted by at least one role. A dangling reference is a
// configuration error and should fail startup.
func (r *Registry) CheckRequirements(reqs ...Requirement) error {
	for _, req := range reqs {
		switch req.kind {
		case requireRole:
			if !r.KnowsRole(req.role) {
				return fmt.Errorf("authz: route requires unknown role %q", req.role)
			}
		case requirePermission:
			if !r.KnowsPermission(req.perm) {
				return fmt.Errorf("authz: route requires permission %q granted by no role", req.perm)
			}
		}
	}
	return nil
}

// CheckAffordances verifies that every permission referenced by a UI
// affordance is granted by at least one role.
func (r *Registry) CheckAffordances(affordances ...Affordance) error {
	for _, a := range affordances {
		for _, p := range a.AnyOf {
			if !r.KnowsPermission(p) {
				return fmt.Errorf("authz: affordance %q references permission %q granted by no role", a.ID, p)
			}
		}
	}
	return nil
}
