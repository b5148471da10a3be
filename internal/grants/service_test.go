package grants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-apparel/meridian-console/internal/authz"
)

type mockRepo struct {
	byUser     map[int64][]CategoryGrant
	replaceErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{byUser: make(map[int64][]CategoryGrant)}
}

func (m *mockRepo) ListForUser(ctx context.Context, userID int64) ([]CategoryGrant, error) {
	return m.byUser[userID], nil
}

func (m *mockRepo) ListForCategory(ctx context.Context, categoryID int64) ([]CategoryGrant, error) {
	out := []CategoryGrant{}
	for _, rows := range m.byUser {
		for _, g := range rows {
			if g.CategoryID == categoryID {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (m *mockRepo) ReplaceForUser(ctx context.Context, userID int64, grants []CategoryGrant) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	kept := []CategoryGrant{}
	for _, g := range grants {
		if !g.Empty() {
			kept = append(kept, g)
		}
	}
	m.byUser[userID] = kept
	return nil
}

func (m *mockRepo) AllowedCategoryIDs(ctx context.Context, userID int64, action authz.Action) ([]int64, error) {
	ids := []int64{}
	for _, g := range m.byUser[userID] {
		if g.Allows(action) {
			ids = append(ids, g.CategoryID)
		}
	}
	return ids, nil
}

type mockLister struct {
	ids []int64
}

func (m *mockLister) CategoryIDs(ctx context.Context) ([]int64, error) {
	return m.ids, nil
}

type recordingAuditor struct {
	calls []int64
}

func (a *recordingAuditor) GrantsReplaced(ctx context.Context, actorID, targetUserID int64, count int) {
	a.calls = append(a.calls, targetUserID)
}

func newTestService(t *testing.T, repo Repository) (*Service, *recordingAuditor) {
	t.Helper()
	catalog := authz.DefaultCatalog()
	require.NoError(t, catalog.Validate())
	auditor := &recordingAuditor{}
	return NewService(repo, authz.NewResolver(catalog, nil), &mockLister{ids: []int64{1, 2, 3}}, auditor, nil), auditor
}

func TestReplaceGrantsIsFullReplace(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{
		{UserID: 42, CategoryID: 1, CanView: true},
		{UserID: 42, CategoryID: 2, CanView: true, CanEdit: true},
	}
	svc, auditor := newTestService(t, repo)
	actor := authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}

	err := svc.ReplaceGrants(context.Background(), actor, 42, []CategoryGrant{
		{CategoryID: 3, CanView: true, CanCreate: true},
	})
	require.NoError(t, err)

	rows, err := svc.GrantsForUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// The category absent from the new set lost its grant.
	assert.Equal(t, int64(3), rows[0].CategoryID)
	assert.Equal(t, int64(42), rows[0].UserID)
	assert.Equal(t, []int64{42}, auditor.calls)
}

func TestReplaceGrantsEmptySetRevokesEverything(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{{UserID: 42, CategoryID: 1, CanView: true}}
	svc, _ := newTestService(t, repo)

	err := svc.ReplaceGrants(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, 42, nil)
	require.NoError(t, err)

	rows, err := svc.GrantsForUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReplaceGrantsRejectsDuplicateCategory(t *testing.T) {
	svc, auditor := newTestService(t, newMockRepo())

	err := svc.ReplaceGrants(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, 42, []CategoryGrant{
		{CategoryID: 1, CanView: true},
		{CategoryID: 1, CanEdit: true},
	})
	require.ErrorIs(t, err, ErrDuplicateCategory)
	assert.Empty(t, auditor.calls)
}

func TestReplaceGrantsRejectsInvalidCategoryID(t *testing.T) {
	svc, _ := newTestService(t, newMockRepo())

	err := svc.ReplaceGrants(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, 42, []CategoryGrant{
		{CategoryID: 0, CanView: true},
	})
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestReplaceGrantsSurfacesRepositoryError(t *testing.T) {
	repo := newMockRepo()
	repo.replaceErr = ErrUnknownCategory
	svc, auditor := newTestService(t, repo)

	err := svc.ReplaceGrants(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, 42, []CategoryGrant{
		{CategoryID: 9, CanView: true},
	})
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Empty(t, auditor.calls)
}

func TestAllowedCategoryIDsPerAction(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{
		{UserID: 42, CategoryID: 1, CanView: true, CanEdit: true},
		{UserID: 42, CategoryID: 2, CanView: true},
	}
	svc, _ := newTestService(t, repo)
	seller := authz.Subject{UserID: 42, Role: authz.RoleSeller}

	viewable, err := svc.AllowedCategoryIDs(context.Background(), seller, authz.ActionView)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, viewable)

	editable, err := svc.AllowedCategoryIDs(context.Background(), seller, authz.ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, editable)
}

func TestAllowedCategoryIDsSuperAdminExpands(t *testing.T) {
	svc, _ := newTestService(t, newMockRepo())

	ids, err := svc.AllowedCategoryIDs(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, authz.ActionView)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestCanAccessCategorySuperAdminBypasses(t *testing.T) {
	svc, _ := newTestService(t, newMockRepo())

	decision, err := svc.CanAccessCategory(context.Background(), authz.Subject{UserID: 1, Role: authz.RoleSuperAdmin}, authz.ModuleCategories, 999, authz.ActionDelete)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanAccessCategoryRequiresModuleGate(t *testing.T) {
	repo := newMockRepo()
	// A grant row exists, but VIEWER fails the categories module gate.
	repo.byUser[42] = []CategoryGrant{{UserID: 42, CategoryID: 1, CanView: true}}
	svc, _ := newTestService(t, repo)

	decision, err := svc.CanAccessCategory(context.Background(), authz.Subject{UserID: 42, Role: authz.RoleViewer}, authz.ModuleCategories, 1, authz.ActionView)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanAccessCategoryRequiresGrant(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{{UserID: 42, CategoryID: 1, CanView: true}}
	svc, _ := newTestService(t, repo)
	seller := authz.Subject{UserID: 42, Role: authz.RoleSeller}

	allowed, err := svc.CanAccessCategory(context.Background(), seller, authz.ModuleCategories, 1, authz.ActionView)
	require.NoError(t, err)
	assert.True(t, allowed.Allowed)

	// Missing grant row denies even though the module gate passes.
	denied, err := svc.CanAccessCategory(context.Background(), seller, authz.ModuleCategories, 2, authz.ActionView)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)

	// The grant covers view only.
	denied, err = svc.CanAccessCategory(context.Background(), seller, authz.ModuleCategories, 1, authz.ActionDelete)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
}

func TestRawAllowedCategoryIDsReadsStoredGrants(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{
		{UserID: 42, CategoryID: 1, CanView: true},
		{UserID: 42, CategoryID: 2, CanView: true, CanDelete: true},
	}
	svc, _ := newTestService(t, repo)

	ids, err := svc.RawAllowedCategoryIDs(context.Background(), 42, authz.ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	// No role bypass: a super admin target is read like any other user.
	ids, err = svc.RawAllowedCategoryIDs(context.Background(), 1, authz.ActionView)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCanAccessCategoryUsesOwningModuleGate(t *testing.T) {
	repo := newMockRepo()
	repo.byUser[42] = []CategoryGrant{{UserID: 42, CategoryID: 1, CanView: true}}
	svc, _ := newTestService(t, repo)
	viewer := authz.Subject{UserID: 42, Role: authz.RoleViewer}

	// The products list and a product detail must agree for a viewer
	// holding a view grant: the list enumerates category 1, so the detail
	// check gated on the products module allows it too.
	ids, err := svc.AllowedCategoryIDs(context.Background(), viewer, authz.ActionView)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	detail, err := svc.CanAccessCategory(context.Background(), viewer, authz.ModuleProducts, 1, authz.ActionView)
	require.NoError(t, err)
	assert.True(t, detail.Allowed)

	// Category management itself does not widen view to VIEWER.
	manage, err := svc.CanAccessCategory(context.Background(), viewer, authz.ModuleCategories, 1, authz.ActionView)
	require.NoError(t, err)
	assert.False(t, manage.Allowed)
}

var _ Repository = (*mockRepo)(nil)
