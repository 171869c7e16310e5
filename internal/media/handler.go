package media

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
)

// maxUploadBytes caps a single upload at 32 MiB.
const maxUploadBytes = 32 << 20

// ObjectStore is the storage surface the handler needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	List(ctx context.Context) ([]Object, error)
	Remove(ctx context.Context, key string) error
}

// Handler wires the media library endpoints.
type Handler struct {
	logger    *slog.Logger
	store     ObjectStore
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store ObjectStore, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, store: store, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers media routes. Anyone who may upload can browse the
// library; deletion needs the management permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermUploadMedia, authz.PermManageMedia))
		r.Get("/", h.listMedia)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermUploadMedia))
		r.Post("/", h.uploadMedia)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermManageMedia))
		r.Post("/delete", h.deleteMedia)
	})
}

func (h *Handler) listMedia(w http.ResponseWriter, r *http.Request) {
	objects, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list media", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{"Objects": objects})
}

func (h *Handler) uploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Prefix with a fresh id so uploads never clobber each other.
	key := uuid.NewString() + "-" + filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.store.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.Error("upload media", slog.String("key", key), slog.Any("error", err))
		h.flash(r, "error", "Upload failed")
	} else {
		h.flash(r, "success", "File uploaded")
	}
	http.Redirect(w, r, "/media", http.StatusSeeOther)
}

func (h *Handler) deleteMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PostFormValue("key")
	if key == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.store.Remove(r.Context(), key); err != nil {
		h.logger.Error("delete media", slog.String("key", key), slog.Any("error", err))
		h.flash(r, "error", "Could not delete the file")
	} else {
		h.flash(r, "success", "File deleted")
	}
	http.Redirect(w, r, "/media", http.StatusSeeOther)
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, message)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Media library",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      identity.ViewerFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/media/list.html", viewData); err != nil {
		h.logger.Error("render media", slog.Any("error", err))
	}
}

var _ ObjectStore = (*Storage)(nil)
