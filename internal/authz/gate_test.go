package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newsroom-hq/newsroom/internal/authz"
)

func editorViewer() authz.Viewer {
	return authz.Viewer{Identity: &authz.Identity{ID: 7, Role: authz.RoleEditor, Active: true}}
}

func authorViewer() authz.Viewer {
	return authz.Viewer{Identity: &authz.Identity{ID: 3, Role: authz.RoleAuthor, Active: true}}
}

func TestEvaluateLoadingPrecedesEverything(t *testing.T) {
	v := editorViewer()
	v.Loading = true
	d := authz.Evaluate(v, authz.Requirement{
		Roles:       []authz.Role{authz.RoleAdmin},
		Permissions: []authz.Permission{authz.PermManageRoles},
	})
	assert.Equal(t, authz.StatusLoading, d.Status)
	assert.False(t, d.Granted())
}

func TestEvaluateUnauthenticated(t *testing.T) {
	d := authz.Evaluate(authz.Viewer{}, authz.Requirement{})
	assert.Equal(t, authz.StatusUnauthenticated, d.Status)
}

func TestEvaluateRoleCheckPrecedesPermissionCheck(t *testing.T) {
	// The editor holds PUBLISH_ARTICLE, but the accepted-roles list wins.
	d := authz.Evaluate(editorViewer(), authz.Requirement{
		Roles:       []authz.Role{authz.RoleAdmin},
		Permissions: []authz.Permission{authz.PermPublishArticle},
	})
	assert.Equal(t, authz.StatusRoleDenied, d.Status)
}

func TestEvaluateRoleCheckIsCaseInsensitive(t *testing.T) {
	d := authz.Evaluate(editorViewer(), authz.Requirement{Roles: []authz.Role{"editor"}})
	assert.True(t, d.Granted())
}

func TestEvaluatePermissionAny(t *testing.T) {
	d := authz.Evaluate(editorViewer(), authz.Requirement{
		Permissions: []authz.Permission{authz.PermReviewArticles},
	})
	assert.True(t, d.Granted())

	d = authz.Evaluate(authorViewer(), authz.Requirement{
		Permissions: []authz.Permission{authz.PermDeleteAnyArticle},
	})
	assert.Equal(t, authz.StatusPermissionDenied, d.Status)
}

func TestEvaluatePermissionAll(t *testing.T) {
	d := authz.Evaluate(editorViewer(), authz.Requirement{
		Permissions: []authz.Permission{authz.PermCreateArticle, authz.PermPublishArticle},
		RequireAll:  true,
	})
	assert.True(t, d.Granted())

	d = authz.Evaluate(editorViewer(), authz.Requirement{
		Permissions: []authz.Permission{authz.PermCreateArticle, authz.PermManageRoles},
		RequireAll:  true,
	})
	assert.Equal(t, authz.StatusPermissionDenied, d.Status)
}

func TestEvaluateOwnershipShortCircuit(t *testing.T) {
	// The author lacks UPDATE_ANY_ARTICLE but owns the resource.
	v := authorViewer()
	d := authz.Evaluate(v, authz.Requirement{
		Permissions:     []authz.Permission{authz.PermUpdateAnyArticle},
		ResourceOwnerID: v.Identity.ID,
	})
	assert.True(t, d.Granted())

	d = authz.Evaluate(v, authz.Requirement{
		Permissions:     []authz.Permission{authz.PermUpdateAnyArticle},
		ResourceOwnerID: v.Identity.ID + 1,
	})
	assert.Equal(t, authz.StatusPermissionDenied, d.Status)
}

func TestEvaluateNoRequirementDemandsAuthenticationOnly(t *testing.T) {
	assert.True(t, authz.Evaluate(editorViewer(), authz.Requirement{}).Granted())
	assert.Equal(t, authz.StatusUnauthenticated, authz.Evaluate(authz.Viewer{}, authz.Requirement{}).Status)
}

func TestEvaluateUnknownRoleFailsClosed(t *testing.T) {
	v := authz.Viewer{Identity: &authz.Identity{ID: 9, Role: "INTERN"}}
	d := authz.Evaluate(v, authz.Requirement{
		Permissions: []authz.Permission{authz.PermViewDashboard},
	})
	assert.Equal(t, authz.StatusPermissionDenied, d.Status)
	// But authentication alone still passes: the role is unknown, not absent.
	assert.True(t, authz.Evaluate(v, authz.Requirement{}).Granted())
}

func TestEvaluateIsIdempotent(t *testing.T) {
	v := editorViewer()
	req := authz.Requirement{
		Roles:       []authz.Role{authz.RoleEditor},
		Permissions: []authz.Permission{authz.PermReviewArticles},
	}
	first := authz.Evaluate(v, req)
	second := authz.Evaluate(v, req)
	assert.Equal(t, first, second)
}

func TestViewerAccessors(t *testing.T) {
	assert.False(t, authz.Viewer{}.Authenticated())
	assert.Equal(t, authz.Role(""), authz.Viewer{}.Role())
	assert.Equal(t, int64(0), authz.Viewer{}.UserID())

	v := authorViewer()
	assert.True(t, v.Authenticated())
	assert.Equal(t, authz.RoleAuthor, v.Role())
	assert.Equal(t, int64(3), v.UserID())
}
