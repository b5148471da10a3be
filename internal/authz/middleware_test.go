package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-apparel/meridian-console/internal/shared"
)

func requestWithUser(t *testing.T, path, userID, role string) *http.Request {
	t.Helper()
	sess := &shared.Session{ID: "test-session"}
	if userID != "" {
		sess.SetUser(userID, role)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func passthrough(subjects *[]*Subject) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*subjects = append(*subjects, SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareRequireRouteAllowed(t *testing.T) {
	mw := Middleware{Guard: newTestGuard(t)}

	var seen []*Subject
	handler := mw.RequireRoute()(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/products/7", "42", "SELLER"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, seen, 1)
	require.NotNil(t, seen[0])
	assert.Equal(t, int64(42), seen[0].UserID)
	assert.Equal(t, RoleSeller, seen[0].Role)
}

func TestMiddlewareRequireRouteUnauthenticated(t *testing.T) {
	mw := Middleware{Guard: newTestGuard(t)}

	var seen []*Subject
	handler := mw.RequireRoute()(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/products", "", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)
}

func TestMiddlewareRequireRouteMalformedRoleIsUnauthenticated(t *testing.T) {
	mw := Middleware{Guard: newTestGuard(t)}

	var seen []*Subject
	handler := mw.RequireRoute()(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/products", "42", "MANAGER"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)
}

func TestMiddlewareRequireRouteDenied(t *testing.T) {
	var denied []string
	mw := Middleware{
		Guard: newTestGuard(t),
		OnDeny: func(_ context.Context, subject *Subject, path string) {
			require.NotNil(t, subject)
			denied = append(denied, path)
		},
	}

	var seen []*Subject
	handler := mw.RequireRoute()(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/financial", "42", "SELLER"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, seen)
	assert.Equal(t, []string{"/financial"}, denied)

	var payload DenialPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "SELLER", payload.ActualRole)
	assert.Equal(t, []string{"SUPER_ADMIN"}, payload.RequiredRoles)
	assert.Equal(t, http.StatusForbidden, payload.Status)
}

func TestMiddlewareRequireModuleAction(t *testing.T) {
	mw := Middleware{Guard: newTestGuard(t)}

	var seen []*Subject
	handler := mw.RequireModule(ModuleOrders, ActionApprove)(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/orders/9/approve", "42", "SELLER"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/orders/9/approve", "7", "ADMIN"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareRequireAuthenticated(t *testing.T) {
	mw := Middleware{Guard: newTestGuard(t)}

	var seen []*Subject
	handler := mw.RequireAuthenticated()(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/auth/me", "", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(t, "/auth/me", "12", "VIEWER"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, seen, 1)
	assert.Equal(t, RoleViewer, seen[0].Role)
}
