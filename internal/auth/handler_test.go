package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/newsroom-hq/newsroom/internal/auth"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/view"
	_ "github.com/newsroom-hq/newsroom/testing"
)

type stubRepo struct {
	user            *auth.User
	createdSessions []string
	deletedSessions []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.createdSessions = append(s.createdSessions, id)
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deletedSessions = append(s.deletedSessions, id)
	return nil
}

type stubIdentityStore struct{}

func (stubIdentityStore) FindByID(ctx context.Context, id int64) (*identity.Record, error) {
	return nil, shared.ErrNotFound
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	identities := identity.NewProvider(stubIdentityStore{}, redisClient, time.Minute, logger)

	handler := auth.NewHandler(logger, auth.NewService(repo), templates, sessionManager, csrfManager, identities)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx), sess
}

func activeUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{ID: 1, Email: "user@newsroom.test", Name: "Test User", PasswordHash: string(hashed), IsActive: true}
}

func postLogin(t *testing.T, handler *auth.Handler, sm *shared.SessionManager, email, password string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, sm, req)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	return res, sess
}

func TestLoginPageRendersForm(t *testing.T) {
	handler, sm := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req, sess := withSession(t, sm, req)
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	require.NoError(t, sm.Commit(req.Context(), res, sess))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
}

func TestLoginSuccessBindsSessionToUser(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correct-password")}
	handler, sm := newAuthHandler(t, repo)

	res, sess := postLogin(t, handler, sm, "user@newsroom.test", "correct-password")

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.Equal(t, "1", sess.User())
	assert.Len(t, repo.createdSessions, 1)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correct-password")}
	handler, sm := newAuthHandler(t, repo)

	res, sess := postLogin(t, handler, sm, "user@newsroom.test", "wrong-password")

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid email or password")
	assert.Empty(t, sess.User())
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	user := activeUser(t, "correct-password")
	user.IsActive = false
	handler, sm := newAuthHandler(t, &stubRepo{user: user})

	res, sess := postLogin(t, handler, sm, "user@newsroom.test", "correct-password")

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, sess.User())
}

func TestLogoutClearsSessionSynchronously(t *testing.T) {
	repo := &stubRepo{user: activeUser(t, "correct-password")}
	handler, sm := newAuthHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req, sess := withSession(t, sm, req)
	sess.SetUser("1")

	res := httptest.NewRecorder()
	handler.HandleLogoutForTest(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/welcome", res.Header().Get("Location"))
	// The session forgets the user before the response commits, so any
	// evaluation later in the same request sees an anonymous viewer.
	assert.Empty(t, sess.User())
	assert.Len(t, repo.deletedSessions, 1)
}
