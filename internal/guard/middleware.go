// Package guard applies the authorization gate at route granularity. It is a
// thin composition over authz.Evaluate plus navigation: the only behavior it
// adds beyond the plain gate is the redirect branch and the full-page
// loading/denied rendering.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/observability"
	"github.com/newsroom-hq/newsroom/internal/view"
)

// Config declares how a protected route behaves on denial.
type Config struct {
	Requirement authz.Requirement
	// RedirectTo navigates away on denial instead of rendering inline.
	// Ignored when it equals the current path, to avoid redirect loops.
	RedirectTo string
	// ShowError renders an explicit denied/authentication-required page.
	// When false, denial produces a bare status text response.
	ShowError bool
}

// Middleware builds chi route guards from gate requirements.
type Middleware struct {
	Logger    *slog.Logger
	Templates *view.Engine
	Metrics   *observability.Metrics
}

// Protect evaluates the requirement on every request, in the gate's fixed
// order: loading, authentication, role, permission.
func (m Middleware) Protect(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := identity.ViewerFromContext(r.Context())
			decision := authz.Evaluate(viewer, cfg.Requirement)
			m.Metrics.AuthzDecision(outcomeLabel(decision.Status))

			switch decision.Status {
			case authz.StatusGranted:
				next.ServeHTTP(w, r)
			case authz.StatusLoading:
				m.renderLoading(w, r, viewer)
			default:
				m.deny(w, r, viewer, cfg, decision)
			}
		})
	}
}

// Authenticated guards a route for any signed-in user.
func (m Middleware) Authenticated() func(http.Handler) http.Handler {
	return m.Protect(Config{RedirectTo: "/welcome"})
}

// RequireAny grants when the viewer holds at least one listed permission.
func (m Middleware) RequireAny(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.Protect(Config{
		Requirement: authz.Requirement{Permissions: perms},
		ShowError:   true,
	})
}

// RequireAll grants only when the viewer holds every listed permission.
func (m Middleware) RequireAll(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.Protect(Config{
		Requirement: authz.Requirement{Permissions: perms, RequireAll: true},
		ShowError:   true,
	})
}

// RequireRoles grants only to viewers whose role is in the accepted set.
func (m Middleware) RequireRoles(roles ...authz.Role) func(http.Handler) http.Handler {
	return m.Protect(Config{
		Requirement: authz.Requirement{Roles: roles},
		ShowError:   true,
	})
}

// Check evaluates a requirement inline, for per-resource gates where the
// owner id is only known after the resource has been loaded. It writes the
// loading or denied response itself and reports whether the request may
// proceed.
func (m Middleware) Check(w http.ResponseWriter, r *http.Request, req authz.Requirement) bool {
	viewer := identity.ViewerFromContext(r.Context())
	decision := authz.Evaluate(viewer, req)
	m.Metrics.AuthzDecision(outcomeLabel(decision.Status))

	switch decision.Status {
	case authz.StatusGranted:
		return true
	case authz.StatusLoading:
		m.renderLoading(w, r, viewer)
		return false
	default:
		m.deny(w, r, viewer, Config{ShowError: true}, decision)
		return false
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, viewer authz.Viewer, cfg Config, decision authz.Decision) {
	if cfg.RedirectTo != "" && cfg.RedirectTo != r.URL.Path {
		http.Redirect(w, r, cfg.RedirectTo, http.StatusSeeOther)
		return
	}

	status := http.StatusForbidden
	heading := "Access denied"
	message := "You do not have permission to view this page."
	switch decision.Status {
	case authz.StatusUnauthenticated:
		status = http.StatusUnauthorized
		heading = "Authentication required"
		message = "Sign in to continue."
	case authz.StatusRoleDenied:
		message = "Your role does not grant access to this page."
	}

	if !cfg.ShowError {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.WriteHeader(status)
	err := m.Templates.Render(w, "pages/denied.html", view.TemplateData{
		Title:       heading,
		CurrentPath: r.URL.Path,
		Viewer:      viewer,
		Data:        map[string]any{"Heading": heading, "Message": message},
	})
	if err != nil && m.Logger != nil {
		m.Logger.Error("guard: render denied", slog.Any("error", err))
	}
}

// renderLoading keeps the ordering guarantee visible at page level: while the
// identity is unresolved nothing is denied, the client is told to retry.
func (m Middleware) renderLoading(w http.ResponseWriter, r *http.Request, viewer authz.Viewer) {
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	err := m.Templates.Render(w, "pages/loading.html", view.TemplateData{
		Title:       "Loading",
		CurrentPath: r.URL.Path,
		Viewer:      viewer,
	})
	if err != nil && m.Logger != nil {
		m.Logger.Error("guard: render loading", slog.Any("error", err))
	}
}

func outcomeLabel(s authz.Status) string {
	switch s {
	case authz.StatusGranted:
		return "granted"
	case authz.StatusLoading:
		return "loading"
	case authz.StatusUnauthenticated:
		return "unauthenticated"
	case authz.StatusRoleDenied:
		return "role_denied"
	case authz.StatusPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}
