// Package permission holds the static role → module → actions matrix.
// The matrix is constant data: checks are pure and O(1), and admin wildcards
// every module.
package permission

// Modules gated by the matrix.
const (
	ModuleProducts       = "products"
	ModuleSales          = "sales"
	ModuleOrders         = "orders"
	ModuleWastage        = "wastage"
	ModuleReconciliation = "reconciliation"
	ModuleCustomers      = "customers"
	ModuleReports        = "reports"
	ModuleUsers          = "users"
)

// Actions.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionReceive = "receive"
	ActionExport  = "export"
	ActionSync    = "sync"
)

// Roles.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleWarehouse = "warehouse"
	RoleSales     = "sales"
	RoleDriver    = "driver"
)

// wildcard grants every action within a module.
const wildcard = "*"

var matrix = map[string]map[string][]string{
	RoleManager: {
		ModuleProducts:       {wildcard},
		ModuleSales:          {wildcard},
		ModuleOrders:         {wildcard},
		ModuleWastage:        {wildcard},
		ModuleReconciliation: {wildcard},
		ModuleCustomers:      {wildcard},
		ModuleReports:        {ActionView, ActionExport},
	},
	RoleWarehouse: {
		ModuleProducts: {ActionView, ActionEdit},
		ModuleOrders:   {ActionView, ActionCreate, ActionEdit, ActionReceive},
		ModuleWastage:  {ActionView, ActionCreate},
		ModuleSales:    {ActionView, ActionEdit},
	},
	RoleSales: {
		ModuleProducts:  {ActionView},
		ModuleSales:     {ActionView, ActionCreate, ActionEdit, ActionSync},
		ModuleCustomers: {ActionView, ActionCreate, ActionEdit},
		ModuleReports:   {ActionView},
	},
	RoleDriver: {
		ModuleSales: {ActionView, ActionEdit},
	},
}

// Has reports whether the role may perform action on module.
// Admin is allowed everything; unknown roles nothing.
func Has(role, module, action string) bool {
	if role == RoleAdmin {
		return true
	}
	mods, ok := matrix[role]
	if !ok {
		return false
	}
	actions, ok := mods[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == wildcard || a == action {
			return true
		}
	}
	return false
}

// ValidRole reports whether the role name exists.
func ValidRole(role string) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := matrix[role]
	return ok
}
