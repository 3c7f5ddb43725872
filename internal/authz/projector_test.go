package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectOrSemantics(t *testing.T) {
	affordances := []Affordance{
		{ID: "clients.card", AnyOf: []Permission{PermClientsView, PermClientsManage}},
		{ID: "invoices.edit-button", AnyOf: []Permission{PermInvoicesEdit}},
	}

	// Holding either accepted permission enables the card.
	caps := Project([]Permission{PermClientsManage}, affordances)
	assert.True(t, caps["clients.card"])
	assert.False(t, caps["invoices.edit-button"])

	caps = Project([]Permission{PermClientsView}, affordances)
	assert.True(t, caps["clients.card"])
}

func TestProjectIdempotent(t *testing.T) {
	reg := DefaultRegistry()
	granted := reg.Grants(RoleSecretary)
	affordances := DefaultAffordances()

	first := Project(granted, affordances)
	second := Project(granted, affordances)
	assert.Equal(t, first, second)
}

func TestProjectFullMap(t *testing.T) {
	// Every affordance appears in the map even with an empty grant set.
	affordances := DefaultAffordances()
	caps := Project(nil, affordances)
	require.Len(t, caps, len(affordances))
	for id, enabled := range caps {
		assert.False(t, enabled, "affordance %s", id)
	}
}

func TestProjectFreshMap(t *testing.T) {
	affordances := DefaultAffordances()
	granted := DefaultRegistry().Grants(RoleTechnician)

	first := Project(granted, affordances)
	first["repairs.card"] = false

	second := Project(granted, affordances)
	assert.True(t, second["repairs.card"])
}

func TestProjectMirrorsEngine(t *testing.T) {
	// The projection must never promise more than the engine grants.
	reg := DefaultRegistry()
	engine := NewEngine(reg)
	affordances := DefaultAffordances()

	for _, role := range reg.Roles() {
		caps := Project(reg.Grants(role), affordances)
		for _, a := range affordances {
			allowed := false
			for _, p := range a.AnyOf {
				if engine.Authorize(role, HasPermission(p)).Allow {
					allowed = true
					break
				}
			}
			assert.Equal(t, allowed, caps[a.ID], "role=%s affordance=%s", role, a.ID)
		}
	}
}
