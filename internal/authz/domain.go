package authz

// Role identifies a permission grouping. The set of roles is closed:
// every principal carries exactly one of the values below.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleTechnician    Role = "technician"
	RoleSecretary     Role = "secretary"
	RoleUser          Role = "user"
)

// Permission is an atomic capability identifier. Permissions have no
// internal structure; they are compared by equality only.
type Permission string

// Console permissions grouped by screen area.
const (
	PermClientsView   Permission = "clients.view"
	PermClientsManage Permission = "clients.manage"

	PermEquipmentView   Permission = "equipment.view"
	PermEquipmentManage Permission = "equipment.manage"

	PermInvoicesView   Permission = "invoices.view"
	PermInvoicesCreate Permission = "invoices.create"
	PermInvoicesEdit   Permission = "invoices.edit"

	PermRepairsView   Permission = "repairs.view"
	PermRepairsManage Permission = "repairs.manage"

	PermUsersView   Permission = "users.view"
	PermUsersManage Permission = "users.manage"
)

// Valid reports whether the role is one of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleTechnician, RoleSecretary, RoleUser:
		return true
	}
	return false
}
