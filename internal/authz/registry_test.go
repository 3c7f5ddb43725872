package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantsMatchMembership(t *testing.T) {
	reg := DefaultRegistry()

	// Collect every permission any role grants.
	all := make(map[Permission]struct{})
	for _, role := range reg.Roles() {
		for _, p := range reg.Grants(role) {
			all[p] = struct{}{}
		}
	}
	require.NotEmpty(t, all)

	// HasPermission agrees with the grant list for every (role, perm).
	for _, role := range reg.Roles() {
		granted := make(map[Permission]struct{})
		for _, p := range reg.Grants(role) {
			granted[p] = struct{}{}
		}
		for p := range all {
			_, want := granted[p]
			assert.Equal(t, want, reg.HasPermission(role, p), "role=%s perm=%s", role, p)
		}
	}
}

func TestGrantsReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()
	perms := reg.Grants(RoleSecretary)
	require.NotEmpty(t, perms)
	original := perms[0]

	perms[0] = Permission("tampered")
	assert.Equal(t, original, reg.Grants(RoleSecretary)[0])
}

func TestGrantsPreservesOrder(t *testing.T) {
	reg := NewRegistry(map[Role][]Permission{
		RoleTechnician: {PermRepairsManage, PermRepairsView, PermClientsView},
	})
	assert.Equal(t, []Permission{PermRepairsManage, PermRepairsView, PermClientsView}, reg.Grants(RoleTechnician))
}

func TestGrantsUnknownRole(t *testing.T) {
	reg := DefaultRegistry()
	assert.Nil(t, reg.Grants(Role("visitor")))
	assert.False(t, reg.HasPermission(Role("visitor"), PermClientsView))
}

func TestCheckRequirements(t *testing.T) {
	reg := DefaultRegistry()

	require.NoError(t, reg.CheckRequirements(
		NoRequirement(),
		RoleEquals(RoleAdministrator),
		HasPermission(PermInvoicesEdit),
	))

	err := reg.CheckRequirements(HasPermission(Permission("archive.purge")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive.purge")

	err = reg.CheckRequirements(RoleEquals(Role("auditor")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auditor")
}

func TestCheckAffordances(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.CheckAffordances(DefaultAffordances()...))

	err := reg.CheckAffordances(Affordance{
		ID:    "reports.card",
		AnyOf: []Permission{Permission("reports.view")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports.card")
}
