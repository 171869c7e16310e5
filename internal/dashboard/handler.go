package dashboard

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

// Handler renders the role-specific dashboard.
type Handler struct {
	logger    *slog.Logger
	stats     *StatsService
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, stats *StatsService, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, stats: stats, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers the dashboard route. Only authentication is enforced
// here: an account with an unrecognized role must still reach the page so it
// can be told something is misconfigured, instead of a generic denial.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticated())
		r.Get("/", h.showDashboard)
	})
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	viewer := identity.ViewerFromContext(r.Context())

	var (
		page  string
		title string
		stats Stats
		err   error
	)
	switch viewer.Role() {
	case authz.RoleAdmin:
		page, title = "pages/dashboard/admin.html", "Admin dashboard"
		stats, err = h.stats.SiteStats(r.Context())
	case authz.RoleEditor:
		page, title = "pages/dashboard/editor.html", "Editor dashboard"
		stats, err = h.stats.SiteStats(r.Context())
	case authz.RoleAuthor:
		page, title = "pages/dashboard/author.html", "Author dashboard"
		stats, err = h.stats.AuthorStats(r.Context(), viewer.UserID())
	default:
		h.renderUnknownRole(w, r, viewer)
		return
	}
	if err != nil {
		h.logger.Error("dashboard stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, page, title, map[string]any{"Stats": stats}, http.StatusOK)
}

// renderUnknownRole surfaces a misconfigured account loudly. The page tells
// the user their role is not recognized rather than silently denying access.
func (h *Handler) renderUnknownRole(w http.ResponseWriter, r *http.Request, viewer authz.Viewer) {
	h.logger.Warn("dashboard: unrecognized role",
		slog.Int64("user_id", viewer.UserID()),
		slog.String("role", string(viewer.Role())))
	h.render(w, r, "pages/dashboard/unknown_role.html", "Unrecognized role",
		map[string]any{"Role": string(viewer.Role())}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      identity.ViewerFromContext(r.Context()),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render dashboard", slog.String("page", page), slog.Any("error", err))
	}
}
