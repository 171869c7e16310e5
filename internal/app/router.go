package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/newsroom-hq/newsroom/internal/articles"
	"github.com/newsroom-hq/newsroom/internal/auth"
	"github.com/newsroom-hq/newsroom/internal/dashboard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/media"
	"github.com/newsroom-hq/newsroom/internal/observability"
	"github.com/newsroom-hq/newsroom/internal/roles"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/users"
	"github.com/newsroom-hq/newsroom/internal/view"
	"github.com/newsroom-hq/newsroom/jobs"
	"github.com/newsroom-hq/newsroom/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	Identities       *identity.Provider
	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	ArticlesHandler  *articles.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	MediaHandler     *media.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with newsroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Identities:     params.Identities,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for signed-out visitors.
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:       "Newsroom",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			Viewer:      identity.ViewerFromContext(r.Context()),
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	params.DashboardHandler.MountRoutes(r)
	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/articles", params.ArticlesHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	if params.MediaHandler != nil {
		r.Route("/media", params.MediaHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
