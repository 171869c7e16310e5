package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates. Viewer carries the
// resolved identity so templates can gate subtrees with the can/isRole
// helpers; gates nested in templates evaluate independently on every render.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Viewer      authz.Viewer
	Data        any
}

// NewEngine parses embedded templates at startup.
func NewEngine() (*Engine, error) {
	titleCaser := cases.Title(language.English)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		// can renders its subtree iff the viewer holds the permission.
		"can": func(v authz.Viewer, perm string) bool {
			return authz.Evaluate(v, authz.Requirement{
				Permissions: []authz.Permission{authz.Permission(perm)},
			}).Granted()
		},
		// canAny grants on the first held permission.
		"canAny": func(v authz.Viewer, perms ...string) bool {
			return authz.Evaluate(v, authz.Requirement{Permissions: toPermissions(perms)}).Granted()
		},
		// canAll demands every listed permission.
		"canAll": func(v authz.Viewer, perms ...string) bool {
			return authz.Evaluate(v, authz.Requirement{
				Permissions: toPermissions(perms),
				RequireAll:  true,
			}).Granted()
		},
		// isRole gates on role membership, case-insensitively.
		"isRole": func(v authz.Viewer, roles ...string) bool {
			accepted := make([]authz.Role, len(roles))
			for i, r := range roles {
				accepted[i] = authz.Role(r)
			}
			return authz.Evaluate(v, authz.Requirement{Roles: accepted}).Granted()
		},
		// ownsOr applies the ownership short-circuit before the permission check.
		"ownsOr": func(v authz.Viewer, ownerID int64, perms ...string) bool {
			return authz.Evaluate(v, authz.Requirement{
				Permissions:     toPermissions(perms),
				ResourceOwnerID: ownerID,
			}).Granted()
		},
		"roleLabel": func(r authz.Role) string {
			return titleCaser.String(string(r))
		},
		"add": func(a, b int) int { return a + b },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/*/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

func toPermissions(perms []string) []authz.Permission {
	out := make([]authz.Permission, len(perms))
	for i, p := range perms {
		out[i] = authz.Permission(p)
	}
	return out
}
