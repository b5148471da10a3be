package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogRejectsDuplicateKey(t *testing.T) {
	_, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "/products", AllowedRoles: RoleSet{RoleAdmin}},
		{Key: ModuleProducts, Path: "/other", AllowedRoles: RoleSet{RoleAdmin}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate module key")
}

func TestNewCatalogRejectsDuplicatePath(t *testing.T) {
	_, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "/products", AllowedRoles: RoleSet{RoleAdmin}},
		{Key: ModuleOrders, Path: "/products", AllowedRoles: RoleSet{RoleAdmin}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share path")
}

func TestNewCatalogRejectsInvalidPath(t *testing.T) {
	_, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "products", AllowedRoles: RoleSet{RoleAdmin}},
	})
	require.Error(t, err)
}

func TestValidateRejectsEmptyRoles(t *testing.T) {
	catalog, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "/products"},
	})
	require.NoError(t, err)
	require.Error(t, catalog.Validate())
}

func TestValidateRejectsActionOutsideAllowedRoles(t *testing.T) {
	catalog, err := NewCatalog([]Module{
		{
			Key:          ModuleProducts,
			Path:         "/products",
			AllowedRoles: RoleSet{RoleAdmin},
			Actions: map[Action]RoleSet{
				ActionDelete: {RoleSeller},
			},
		},
	})
	require.NoError(t, err)
	require.Error(t, catalog.Validate())
}

func TestValidateAllowsViewWidening(t *testing.T) {
	// The view action may include roles outside the module grant so that
	// read-only listings stay possible.
	catalog, err := NewCatalog([]Module{
		{
			Key:          ModuleProducts,
			Path:         "/products",
			AllowedRoles: RoleSet{RoleAdmin},
			Actions: map[Action]RoleSet{
				ActionView: {RoleAdmin, RoleViewer},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, catalog.Validate())
}

func TestValidateRejectsInvalidRole(t *testing.T) {
	catalog, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "/products", AllowedRoles: RoleSet{Role("MANAGER")}},
	})
	require.NoError(t, err)
	require.Error(t, catalog.Validate())
}

func TestDefaultCatalogIsValid(t *testing.T) {
	catalog := DefaultCatalog()
	require.NoError(t, catalog.Validate())
	assert.Len(t, catalog.Modules(), 9)
}

func TestResolveRouteExactMatch(t *testing.T) {
	catalog := DefaultCatalog()

	module, ok := catalog.ResolveRoute("/products")
	require.True(t, ok)
	assert.Equal(t, ModuleProducts, module.Key)
}

func TestResolveRoutePrefixMatch(t *testing.T) {
	catalog := DefaultCatalog()

	module, ok := catalog.ResolveRoute("/products/42/edit")
	require.True(t, ok)
	assert.Equal(t, ModuleProducts, module.Key)
}

func TestResolveRouteLongestPrefixWins(t *testing.T) {
	catalog, err := NewCatalog([]Module{
		{Key: ModuleProducts, Path: "/products", AllowedRoles: RoleSet{RoleAdmin}},
		{Key: ModuleOrders, Path: "/products/archive", AllowedRoles: RoleSet{RoleAdmin}},
	})
	require.NoError(t, err)

	module, ok := catalog.ResolveRoute("/products/archive/2024")
	require.True(t, ok)
	assert.Equal(t, ModuleOrders, module.Key)
}

func TestResolveRouteRejectsBarePrefix(t *testing.T) {
	catalog := DefaultCatalog()

	// "/productsextra" shares a string prefix with "/products" but is not
	// inside that subtree.
	_, ok := catalog.ResolveRoute("/productsextra")
	assert.False(t, ok)
}

func TestResolveRouteUnknownPath(t *testing.T) {
	catalog := DefaultCatalog()

	_, ok := catalog.ResolveRoute("/reports")
	assert.False(t, ok)
}

func TestResolveRouteRoot(t *testing.T) {
	catalog := DefaultCatalog()

	module, ok := catalog.ResolveRoute("/")
	require.True(t, ok)
	assert.Equal(t, ModuleDashboard, module.Key)
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction(" View ")
	require.NoError(t, err)
	assert.Equal(t, ActionView, action)

	_, err = ParseAction("export")
	require.Error(t, err)
}
