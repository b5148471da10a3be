package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuKeys(entries []MenuEntry) []ModuleKey {
	keys := make([]ModuleKey, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

func TestBuildMenuSuperAdmin(t *testing.T) {
	resolver := newTestResolver(t)

	menu := resolver.BuildMenu(RoleSuperAdmin)
	assert.Equal(t, []ModuleKey{
		ModuleDashboard, ModuleAnalytics, ModuleCategories,
		ModuleProducts, ModuleOrders, ModuleCustomers,
	}, menuKeys(menu.Main))
	assert.Equal(t, []ModuleKey{
		ModuleFinancial, ModuleAudit, ModulePermissions,
	}, menuKeys(menu.Admin))
}

func TestBuildMenuAdminExcludesAdminOnlySection(t *testing.T) {
	resolver := newTestResolver(t)

	menu := resolver.BuildMenu(RoleAdmin)
	assert.Equal(t, []ModuleKey{
		ModuleDashboard, ModuleAnalytics, ModuleCategories,
		ModuleProducts, ModuleOrders, ModuleCustomers,
	}, menuKeys(menu.Main))
	assert.Empty(t, menu.Admin)
}

func TestBuildMenuSeller(t *testing.T) {
	resolver := newTestResolver(t)

	menu := resolver.BuildMenu(RoleSeller)
	assert.Equal(t, []ModuleKey{
		ModuleCategories, ModuleProducts, ModuleOrders, ModuleCustomers,
	}, menuKeys(menu.Main))
	assert.Empty(t, menu.Admin)
}

func TestBuildMenuViewerIsEmptyButNonNil(t *testing.T) {
	resolver := newTestResolver(t)

	// Action-level view widening does not surface sidebar entries; only
	// the module grant does.
	menu := resolver.BuildMenu(RoleViewer)
	require.NotNil(t, menu.Main)
	require.NotNil(t, menu.Admin)
	assert.Empty(t, menu.Main)
	assert.Empty(t, menu.Admin)
}
