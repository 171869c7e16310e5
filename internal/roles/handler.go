// Package roles exposes the static role-permission matrix as a read-only
// page. There is no editing surface: the matrix is fixed at build time.
package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
)

// Handler renders the role-permission matrix.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers the matrix route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermManageRoles))
		r.Get("/", h.showMatrix)
	})
}

type matrixRow struct {
	Permission authz.Permission
	Granted    []bool
}

func (h *Handler) showMatrix(w http.ResponseWriter, r *http.Request) {
	roles := authz.Roles()
	rows := make([]matrixRow, 0, len(authz.AllPermissions()))
	for _, perm := range authz.AllPermissions() {
		row := matrixRow{Permission: perm, Granted: make([]bool, len(roles))}
		for i, role := range roles {
			row.Granted[i] = authz.HasPermission(role, perm)
		}
		rows = append(rows, row)
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Roles",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      identity.ViewerFromContext(r.Context()),
		Data:        map[string]any{"Roles": roles, "Rows": rows},
	}
	if err := h.templates.Render(w, "pages/roles/matrix.html", viewData); err != nil {
		h.logger.Error("render role matrix", slog.Any("error", err))
	}
}
