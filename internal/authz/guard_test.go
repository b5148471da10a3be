package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	return NewGuard(newTestResolver(t))
}

func TestEvaluateRouteNilSubject(t *testing.T) {
	guard := newTestGuard(t)

	outcome := guard.EvaluateRoute(nil, "/products")
	assert.Equal(t, GuardUnauthenticated, outcome.State)
}

func TestEvaluateRouteInvalidRoleIsUnauthenticated(t *testing.T) {
	guard := newTestGuard(t)

	outcome := guard.EvaluateRoute(&Subject{UserID: 7, Role: Role("MANAGER")}, "/products")
	assert.Equal(t, GuardUnauthenticated, outcome.State)
}

func TestEvaluateRouteAllowed(t *testing.T) {
	guard := newTestGuard(t)

	outcome := guard.EvaluateRoute(&Subject{UserID: 7, Role: RoleSeller}, "/products/3")
	assert.Equal(t, GuardAllowed, outcome.State)
}

func TestEvaluateRouteDeniedCarriesContext(t *testing.T) {
	guard := newTestGuard(t)

	outcome := guard.EvaluateRoute(&Subject{UserID: 7, Role: RoleSeller}, "/financial")
	require.Equal(t, GuardDenied, outcome.State)
	assert.Equal(t, RoleSeller, outcome.Decision.ActualRole)
	assert.Equal(t, RoleSet{RoleSuperAdmin}, outcome.Decision.RequiredRoles)
}

func TestEvaluateRouteUnregisteredPathDenies(t *testing.T) {
	guard := newTestGuard(t)

	outcome := guard.EvaluateRoute(&Subject{UserID: 7, Role: RoleAdmin}, "/reports")
	assert.Equal(t, GuardDenied, outcome.State)
}

func TestEvaluateRoles(t *testing.T) {
	guard := newTestGuard(t)

	required := RoleSet{RoleSuperAdmin, RoleAdmin}
	assert.Equal(t, GuardAllowed, guard.EvaluateRoles(&Subject{UserID: 1, Role: RoleAdmin}, required).State)
	assert.Equal(t, GuardDenied, guard.EvaluateRoles(&Subject{UserID: 2, Role: RoleSeller}, required).State)
	assert.Equal(t, GuardUnauthenticated, guard.EvaluateRoles(nil, required).State)
}

func TestEvaluateModule(t *testing.T) {
	guard := newTestGuard(t)

	assert.Equal(t, GuardAllowed, guard.EvaluateModule(&Subject{UserID: 1, Role: RoleViewer}, ModuleOrders, ActionView).State)
	assert.Equal(t, GuardDenied, guard.EvaluateModule(&Subject{UserID: 1, Role: RoleSeller}, ModuleOrders, ActionApprove).State)
	assert.Equal(t, GuardUnauthenticated, guard.EvaluateModule(nil, ModuleOrders, ActionView).State)
}
