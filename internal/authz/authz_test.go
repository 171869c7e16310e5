package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-hq/newsroom/internal/authz"
)

func TestMatrixIsTotalAndDuplicateFree(t *testing.T) {
	for _, role := range authz.Roles() {
		perms := authz.Permissions(role)
		require.NotEmpty(t, perms, "role %s must map to a non-empty set", role)
		seen := make(map[authz.Permission]struct{}, len(perms))
		for _, p := range perms {
			_, dup := seen[p]
			assert.False(t, dup, "role %s lists %s twice", role, p)
			seen[p] = struct{}{}
		}
	}
}

func TestHasPermissionMatchesMatrixMembership(t *testing.T) {
	for _, role := range authz.Roles() {
		granted := make(map[authz.Permission]struct{})
		for _, p := range authz.Permissions(role) {
			granted[p] = struct{}{}
		}
		for _, p := range authz.AllPermissions() {
			_, want := granted[p]
			assert.Equal(t, want, authz.HasPermission(role, p), "role=%s perm=%s", role, p)
		}
	}
}

func TestUnknownRoleHoldsNothing(t *testing.T) {
	for _, role := range []authz.Role{"", "SUPERUSER", "admin ", "GUEST"} {
		assert.False(t, authz.KnownRole(role))
		assert.Empty(t, authz.Permissions(role))
		for _, p := range authz.AllPermissions() {
			assert.False(t, authz.HasPermission(role, p), "role=%q perm=%s", role, p)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, authz.RoleAdmin, authz.NormalizeRole(" admin "))
	assert.Equal(t, authz.RoleEditor, authz.NormalizeRole("Editor"))
	assert.Equal(t, authz.Role("MODERATOR"), authz.NormalizeRole("moderator"))
	assert.Equal(t, authz.Role(""), authz.NormalizeRole("   "))
}

func TestRoleScenarios(t *testing.T) {
	assert.True(t, authz.HasPermission(authz.RoleEditor, authz.PermReviewArticles))
	assert.True(t, authz.HasPermission(authz.RoleEditor, authz.PermUpdateAnyArticle))
	assert.False(t, authz.HasPermission(authz.RoleEditor, authz.PermManageRoles))
	assert.False(t, authz.HasPermission(authz.RoleEditor, authz.PermDeleteAnyArticle))

	assert.True(t, authz.HasPermission(authz.RoleAuthor, authz.PermCreateArticle))
	assert.False(t, authz.HasPermission(authz.RoleAuthor, authz.PermDeleteAnyArticle))
	assert.False(t, authz.HasPermission(authz.RoleAuthor, authz.PermUpdateAnyArticle))
	assert.False(t, authz.HasPermission(authz.RoleAuthor, authz.PermPublishArticle))

	for _, p := range authz.AllPermissions() {
		assert.True(t, authz.HasPermission(authz.RoleAdmin, p), "admin must hold %s", p)
	}
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, authz.HasAnyPermission(authz.RoleAuthor, []authz.Permission{
		authz.PermDeleteAnyArticle,
		authz.PermCreateArticle,
	}))
	assert.False(t, authz.HasAnyPermission(authz.RoleAuthor, []authz.Permission{
		authz.PermDeleteAnyArticle,
		authz.PermManageRoles,
	}))
}

func TestHasAllPermissions(t *testing.T) {
	assert.True(t, authz.HasAllPermissions(authz.RoleEditor, []authz.Permission{
		authz.PermCreateArticle,
		authz.PermPublishArticle,
	}))
	assert.False(t, authz.HasAllPermissions(authz.RoleEditor, []authz.Permission{
		authz.PermCreateArticle,
		authz.PermManageRoles,
	}))
}

// Empty permission lists are unsatisfiable by contract; callers express
// "no requirement" by skipping the check, never by passing an empty list.
func TestEmptyPermissionListIsUnsatisfiable(t *testing.T) {
	for _, role := range authz.Roles() {
		assert.False(t, authz.HasAnyPermission(role, nil), "role=%s", role)
		assert.False(t, authz.HasAnyPermission(role, []authz.Permission{}), "role=%s", role)
		assert.False(t, authz.HasAllPermissions(role, nil), "role=%s", role)
		assert.False(t, authz.HasAllPermissions(role, []authz.Permission{}), "role=%s", role)
	}
}

func TestCanAccessResourceOwnershipShortCircuit(t *testing.T) {
	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleAuthor, "", "GUEST"} {
		for _, uid := range []int64{0, 1, 42} {
			assert.True(t, authz.CanAccessResource(role, uid, uid, nil), "role=%q uid=%d", role, uid)
			assert.True(t, authz.CanAccessResource(role, uid, uid, []authz.Permission{authz.PermManageRoles}))
		}
	}
}

func TestCanAccessResourceNonOwnerReducesToAny(t *testing.T) {
	perms := []authz.Permission{authz.PermUpdateAnyArticle}
	assert.Equal(t,
		authz.HasAnyPermission(authz.RoleAuthor, perms),
		authz.CanAccessResource(authz.RoleAuthor, 1, 2, perms))
	assert.Equal(t,
		authz.HasAnyPermission(authz.RoleEditor, perms),
		authz.CanAccessResource(authz.RoleEditor, 1, 2, perms))
	assert.False(t, authz.CanAccessResource(authz.RoleAuthor, 1, 2, nil))
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := authz.Permissions(authz.RoleAuthor)
	require.NotEmpty(t, perms)
	perms[0] = "TAMPERED"
	assert.NotContains(t, authz.Permissions(authz.RoleAuthor), authz.Permission("TAMPERED"))
}
