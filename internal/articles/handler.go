package articles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
)

const listPerPage = 20

// Handler wires article HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		guard:     g,
		validator: validator.New(),
	}
}

// MountRoutes registers article routes. Creation, review and publication are
// guarded at the route level; editing and deletion are gated per resource
// once the owner is known.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticated())
		r.Get("/", h.listArticles)
		r.Get("/{id}/edit", h.showEdit)
		r.Post("/{id}", h.updateArticle)
		r.Post("/{id}/submit", h.submitArticle)
		r.Post("/{id}/delete", h.deleteArticle)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermCreateArticle))
		r.Get("/new", h.showNew)
		r.Post("/", h.createArticle)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermReviewArticles))
		r.Get("/review", h.reviewQueue)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(authz.PermPublishArticle))
		r.Post("/{id}/publish", h.publishArticle)
		r.Post("/{id}/schedule", h.scheduleArticle)
		r.Post("/{id}/reject", h.rejectArticle)
	})
}

type articleForm struct {
	Title string `validate:"required,max=200"`
	Body  string `validate:"required"`
}

type formPageData struct {
	Article Article
	Action  string
	Errors  map[string]string
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	list, pagination, err := h.service.ListPage(r.Context(), page, listPerPage)
	if err != nil {
		h.logger.Error("list articles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/articles/list.html", "Articles",
		map[string]any{"Articles": list, "Pagination": pagination}, http.StatusOK)
}

func (h *Handler) reviewQueue(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ReviewQueue(r.Context())
	if err != nil {
		h.logger.Error("review queue", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/articles/review.html", "Review queue",
		map[string]any{"Articles": list}, http.StatusOK)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, formPageData{Action: "/articles"}, http.StatusOK)
}

func (h *Handler) createArticle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := articleForm{Title: r.PostFormValue("title"), Body: r.PostFormValue("body")}
	data := formPageData{
		Article: Article{Title: form.Title, Body: form.Body},
		Action:  "/articles",
		Errors:  h.validate(form),
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, data, http.StatusBadRequest)
		return
	}

	viewer := identity.ViewerFromContext(r.Context())
	article, err := h.service.Create(r.Context(), viewer.UserID(), form.Title, form.Body)
	if err != nil {
		h.logger.Error("create article", slog.Any("error", err))
		data.Errors["general"] = "Could not save the article"
		h.renderForm(w, r, data, http.StatusInternalServerError)
		return
	}
	h.flash(r, "success", "Draft saved")
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(article.ID, 10)+"/edit", http.StatusSeeOther)
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadGated(w, r, authz.PermUpdateAnyArticle)
	if !ok {
		return
	}
	h.renderForm(w, r, formPageData{
		Article: article,
		Action:  "/articles/" + strconv.FormatInt(article.ID, 10),
	}, http.StatusOK)
}

func (h *Handler) updateArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadGated(w, r, authz.PermUpdateAnyArticle)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := articleForm{Title: r.PostFormValue("title"), Body: r.PostFormValue("body")}
	article.Title = form.Title
	article.Body = form.Body
	data := formPageData{
		Article: article,
		Action:  "/articles/" + strconv.FormatInt(article.ID, 10),
		Errors:  h.validate(form),
	}
	if len(data.Errors) > 0 {
		h.renderForm(w, r, data, http.StatusBadRequest)
		return
	}

	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.Update(r.Context(), viewer.UserID(), article.ID, form.Title, form.Body); err != nil {
		h.logger.Error("update article", slog.Int64("article_id", article.ID), slog.Any("error", err))
		data.Errors["general"] = "Could not save the article"
		h.renderForm(w, r, data, http.StatusInternalServerError)
		return
	}
	h.flash(r, "success", "Article updated")
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) submitArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadGated(w, r, authz.PermUpdateAnyArticle)
	if !ok {
		return
	}
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.SubmitForReview(r.Context(), viewer.UserID(), article.ID); err != nil {
		h.logger.Warn("submit article", slog.Int64("article_id", article.ID), slog.Any("error", err))
		h.flash(r, "error", "Could not submit the article for review")
	} else {
		h.flash(r, "success", "Submitted for review")
	}
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) publishArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.Publish(r.Context(), viewer.UserID(), id); err != nil {
		h.logger.Warn("publish article", slog.Int64("article_id", id), slog.Any("error", err))
		h.flash(r, "error", "Could not publish the article")
	} else {
		h.flash(r, "success", "Article published")
	}
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) scheduleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	// datetime-local inputs carry no zone; interpret them as server time.
	at, err := time.ParseInLocation("2006-01-02T15:04", r.PostFormValue("publish_at"), time.Local)
	if err != nil || at.Before(time.Now()) {
		h.flash(r, "error", "Pick a publication time in the future")
		http.Redirect(w, r, "/articles/review", http.StatusSeeOther)
		return
	}
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.SchedulePublish(r.Context(), viewer.UserID(), id, at); err != nil {
		h.logger.Warn("schedule article", slog.Int64("article_id", id), slog.Any("error", err))
		h.flash(r, "error", "Could not schedule publication")
	} else {
		h.flash(r, "success", "Publication scheduled")
	}
	http.Redirect(w, r, "/articles/review", http.StatusSeeOther)
}

func (h *Handler) rejectArticle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.Reject(r.Context(), viewer.UserID(), id); err != nil {
		h.logger.Warn("reject article", slog.Int64("article_id", id), slog.Any("error", err))
		h.flash(r, "error", "Could not send the article back")
	} else {
		h.flash(r, "success", "Sent back to the author")
	}
	http.Redirect(w, r, "/articles/review", http.StatusSeeOther)
}

func (h *Handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadGated(w, r, authz.PermDeleteAnyArticle)
	if !ok {
		return
	}
	viewer := identity.ViewerFromContext(r.Context())
	if err := h.service.Delete(r.Context(), viewer.UserID(), article.ID); err != nil {
		h.logger.Error("delete article", slog.Int64("article_id", article.ID), slog.Any("error", err))
		h.flash(r, "error", "Could not delete the article")
	} else {
		h.flash(r, "success", "Article deleted")
	}
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

// loadGated fetches the article from the path and applies the ownership gate:
// the author always passes, anyone else needs the wide permission.
func (h *Handler) loadGated(w http.ResponseWriter, r *http.Request, wide authz.Permission) (Article, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Article{}, false
	}
	article, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			h.logger.Error("load article", slog.Int64("article_id", id), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return Article{}, false
	}
	ok := h.guard.Check(w, r, authz.Requirement{
		Permissions:     []authz.Permission{wide},
		ResourceOwnerID: article.AuthorID,
	})
	return article, ok
}

func (h *Handler) validate(form articleForm) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return errs
}

func (h *Handler) flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, message)
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formPageData, status int) {
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	title := "New article"
	if data.Article.ID != 0 {
		title = "Edit article"
	}
	h.render(w, r, "pages/articles/form.html", title, data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any, status int) {
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
		h.logger.Error("render articles page", slog.String("page", page), slog.Any("error", err))
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
