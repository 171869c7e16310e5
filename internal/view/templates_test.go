package view_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/view"
)

func viewerWithRole(role authz.Role) authz.Viewer {
	return authz.Viewer{Identity: &authz.Identity{ID: 4, Email: "t@newsroom.test", Role: role, Active: true}}
}

func TestEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/landing.html", view.TemplateData{Title: "Newsroom"})
	require.NoError(t, err)
	assert.Contains(t, res.Body.String(), "Newsroom admin console")
	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
}

func TestNavLinksFollowPermissions(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "pages/landing.html", view.TemplateData{
		Viewer: viewerWithRole(authz.RoleAdmin),
	}))
	body := res.Body.String()
	assert.Contains(t, body, `href="/roles"`)
	assert.Contains(t, body, `href="/users"`)

	res = httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "pages/landing.html", view.TemplateData{
		Viewer: viewerWithRole(authz.RoleAuthor),
	}))
	body = res.Body.String()
	assert.NotContains(t, body, `href="/roles"`)
	assert.NotContains(t, body, `href="/users"`)
	assert.Contains(t, body, `href="/media"`)
}

func TestAnonymousNavOffersSignIn(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "pages/landing.html", view.TemplateData{}))
	assert.Contains(t, res.Body.String(), `href="/auth/login"`)
	assert.NotContains(t, res.Body.String(), "Sign out")
}
