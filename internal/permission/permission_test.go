package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdminWildcardsEverything(t *testing.T) {
	for _, module := range []string{ModuleProducts, ModuleSales, ModuleOrders, ModuleWastage, ModuleReconciliation, ModuleCustomers, ModuleReports, ModuleUsers} {
		for _, action := range []string{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionReceive, ActionExport, ActionSync} {
			assert.True(t, Has(RoleAdmin, module, action), "admin %s/%s", module, action)
		}
	}
}

func TestWarehouseScope(t *testing.T) {
	assert.True(t, Has(RoleWarehouse, ModuleOrders, ActionReceive))
	assert.True(t, Has(RoleWarehouse, ModuleWastage, ActionCreate))
	assert.False(t, Has(RoleWarehouse, ModuleUsers, ActionView))
	assert.False(t, Has(RoleWarehouse, ModuleReconciliation, ActionEdit))
	assert.False(t, Has(RoleWarehouse, ModuleProducts, ActionDelete))
}

func TestManagerWildcardPerModule(t *testing.T) {
	assert.True(t, Has(RoleManager, ModuleProducts, ActionDelete))
	assert.True(t, Has(RoleManager, ModuleReconciliation, ActionEdit))
	assert.False(t, Has(RoleManager, ModuleUsers, ActionCreate), "user admin is admin-only")
	assert.False(t, Has(RoleManager, ModuleReports, ActionDelete))
}

func TestUnknownRoleDeniedEverything(t *testing.T) {
	assert.False(t, Has("intern", ModuleProducts, ActionView))
	assert.False(t, ValidRole("intern"))
	assert.True(t, ValidRole(RoleDriver))
}
