package identity

import (
	"context"
	"net/http"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/shared"
)

type viewerContextKey struct{}

// ContextWithViewer stores the viewer in context.
func ContextWithViewer(ctx context.Context, v authz.Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey{}, v)
}

// ViewerFromContext extracts the viewer from context. A request that never
// passed the identity middleware yields the zero (unauthenticated) viewer.
func ViewerFromContext(ctx context.Context) authz.Viewer {
	v, _ := ctx.Value(viewerContextKey{}).(authz.Viewer)
	return v
}

// Middleware resolves the session identity once per request and stashes the
// viewer in the request context. It must run after the session middleware.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		viewer := p.Resolve(ctx, shared.SessionFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ContextWithViewer(ctx, viewer)))
	})
}
