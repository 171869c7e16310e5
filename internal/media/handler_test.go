package media_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/media"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
)

type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) List(_ context.Context) ([]media.Object, error) {
	var list []media.Object
	for key, data := range s.objects {
		list = append(list, media.Object{Key: key, Size: int64(len(data)), LastModified: time.Now()})
	}
	return list, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func newRouter(t *testing.T, store media.ObjectStore) chi.Router {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := media.NewHandler(logger, store, templates, shared.NewCSRFManager("test-secret"), guard.Middleware{Templates: templates})
	r := chi.NewRouter()
	r.Route("/media", handler.MountRoutes)
	return r
}

func asViewer(req *http.Request, role authz.Role) *http.Request {
	viewer := authz.Viewer{Identity: &authz.Identity{ID: 3, Email: "m@newsroom.test", Role: role, Active: true}}
	return req.WithContext(identity.ContextWithViewer(req.Context(), viewer))
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAuthorUploadsMedia(t *testing.T) {
	store := newMemStore()
	router := newRouter(t, store)

	body, contentType := multipartUpload(t, "photo.jpg", []byte("jpegdata"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asViewer(req, authz.RoleAuthor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Len(t, store.objects, 1)
	for key := range store.objects {
		assert.Contains(t, key, "photo.jpg")
	}
}

func TestAuthorCannotDeleteMedia(t *testing.T) {
	store := newMemStore()
	store.objects["x.png"] = []byte("data")
	router := newRouter(t, store)

	req := httptest.NewRequest(http.MethodPost, "/media/delete", nil)
	req = asViewer(req, authz.RoleAuthor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Len(t, store.objects, 1)
}

func TestEditorDeletesMedia(t *testing.T) {
	store := newMemStore()
	store.objects["x.png"] = []byte("data")
	router := newRouter(t, store)

	form := bytes.NewBufferString("key=x.png")
	req := httptest.NewRequest(http.MethodPost, "/media/delete", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = asViewer(req, authz.RoleEditor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Empty(t, store.objects)
}

func TestLibraryListsObjects(t *testing.T) {
	store := newMemStore()
	store.objects["report.pdf"] = []byte("pdfdata")
	router := newRouter(t, store)

	req := asViewer(httptest.NewRequest(http.MethodGet, "/media", nil), authz.RoleEditor)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "report.pdf")
}

func TestLibraryDeniedToAnonymous(t *testing.T) {
	router := newRouter(t, newMemStore())
	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req = req.WithContext(identity.ContextWithViewer(req.Context(), authz.Viewer{}))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
