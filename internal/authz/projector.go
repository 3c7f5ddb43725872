package authz

// Affordance declares a UI element (card, button, route) and the
// permissions that enable it. The element is enabled when the
// principal's grant set contains at least one of them.
type Affordance struct {
	ID    string       `json:"id"`
	AnyOf []Permission `json:"any_of"`
}

// DefaultAffordances lists the console's gated UI elements. The
// projection derived from this table is advisory: the server-side gate
// independently enforces the matching requirement on every route.
func DefaultAffordances() []Affordance {
	return []Affordance{
		{ID: "clients.card", AnyOf: []Permission{PermClientsView, PermClientsManage}},
		{ID: "clients.create-button", AnyOf: []Permission{PermClientsManage}},
		{ID: "equipment.card", AnyOf: []Permission{PermEquipmentView, PermEquipmentManage}},
		{ID: "equipment.edit-button", AnyOf: []Permission{PermEquipmentManage}},
		{ID: "invoices.card", AnyOf: []Permission{PermInvoicesView}},
		{ID: "invoices.create-button", AnyOf: []Permission{PermInvoicesCreate}},
		{ID: "invoices.edit-button", AnyOf: []Permission{PermInvoicesEdit}},
		{ID: "repairs.card", AnyOf: []Permission{PermRepairsView, PermRepairsManage}},
		{ID: "repairs.assign-button", AnyOf: []Permission{PermRepairsManage}},
		{ID: "admin.users-card", AnyOf: []Permission{PermUsersView, PermUsersManage}},
	}
}

// Project computes the capability map for a granted permission set:
// one entry per affordance, true when any accepted permission is
// granted. Each call returns a fresh full map so a consumer swapping
// maps never observes partial state.
func Project(granted []Permission, affordances []Affordance) map[string]bool {
	set := make(map[Permission]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	out := make(map[string]bool, len(affordances))
	for _, a := range affordances {
		enabled := false
		for _, p := range a.AnyOf {
			if _, ok := set[p]; ok {
				enabled = true
				break
			}
		}
		out[a.ID] = enabled
	}
	return out
}
