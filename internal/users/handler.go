package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
)

// Handler wires user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers user routes. Listing requires VIEW_ALL_USERS;
// mutations require the management permissions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermViewAllUsers, authz.PermManageUsers))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermManageRoles))
		r.Post("/{id}/role", h.assignRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermManageUsers))
		r.Post("/{id}/activate", h.setActive(true))
		r.Post("/{id}/deactivate", h.setActive(false))
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{"Users": list, "Roles": authz.Roles()}, http.StatusOK)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.AssignRole(r.Context(), viewer.UserID(), userID, r.PostFormValue("role")); err != nil {
		h.logger.Warn("assign role", slog.Int64("user_id", userID), slog.Any("error", err))
		if sess != nil {
			sess.AddFlash("error", "Could not change the role")
		}
	} else if sess != nil {
		sess.AddFlash("success", "Role updated")
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		sess := shared.SessionFromContext(r.Context())
		viewer := identity.ViewerFromContext(r.Context())
		if err := h.service.SetActive(r.Context(), viewer.UserID(), userID, active); err != nil {
			h.logger.Warn("set active", slog.Int64("user_id", userID), slog.Any("error", err))
			if sess != nil {
				sess.AddFlash("error", "Could not update the account")
			}
		} else if sess != nil {
			sess.AddFlash("success", "Account updated")
		}
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      identity.ViewerFromContext(r.Context()),
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/users/list.html", viewData); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
	}
}
