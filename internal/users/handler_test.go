package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/users"
	"github.com/newsroom-hq/newsroom/internal/view"
)

func newUsersRouter(t *testing.T, repo *stubRepo) chi.Router {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	svc, _ := newService(t, repo)
	handler := users.NewHandler(discardLogger(), svc, templates, shared.NewCSRFManager("test-secret"), guard.Middleware{Templates: templates})
	r := chi.NewRouter()
	r.Route("/users", handler.MountRoutes)
	return r
}

func asViewer(req *http.Request, role authz.Role) *http.Request {
	viewer := authz.Viewer{Identity: &authz.Identity{ID: 1, Email: "v@newsroom.test", Role: role, Active: true}}
	return req.WithContext(identity.ContextWithViewer(req.Context(), viewer))
}

func TestUserListIsAdminOnly(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "member@newsroom.test", Name: "Member", Role: authz.RoleAuthor, IsActive: true})
	router := newUsersRouter(t, repo)

	req := asViewer(httptest.NewRequest(http.MethodGet, "/users", nil), authz.RoleEditor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	req = asViewer(httptest.NewRequest(http.MethodGet, "/users", nil), authz.RoleAdmin)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "member@newsroom.test")
}

func TestAssignRoleEndpointRequiresManageRoles(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "member@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	router := newUsersRouter(t, repo)

	form := url.Values{"role": {"EDITOR"}}
	req := httptest.NewRequest(http.MethodPost, "/users/5/role", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = asViewer(req, authz.RoleEditor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
	got, _ := repo.GetUser(context.Background(), 5)
	assert.Equal(t, authz.RoleAuthor, got.Role)
}

func TestAdminAssignsRole(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "member@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	router := newUsersRouter(t, repo)

	form := url.Values{"role": {"EDITOR"}}
	req := httptest.NewRequest(http.MethodPost, "/users/5/role", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = asViewer(req, authz.RoleAdmin)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	got, _ := repo.GetUser(context.Background(), 5)
	assert.Equal(t, authz.RoleEditor, got.Role)
}

func TestAdminDeactivatesAccount(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "member@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	router := newUsersRouter(t, repo)

	req := asViewer(httptest.NewRequest(http.MethodPost, "/users/5/deactivate", nil), authz.RoleAdmin)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	got, _ := repo.GetUser(context.Background(), 5)
	assert.False(t, got.IsActive)
}
