package users_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/users"
)

type stubRepo struct {
	users map[int64]users.User
}

func newStubRepo(seed ...users.User) *stubRepo {
	r := &stubRepo{users: map[int64]users.User{}}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubRepo) ListUsers(context.Context) ([]users.User, error) {
	list := make([]users.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	return list, nil
}

func (r *stubRepo) GetUser(_ context.Context, id int64) (users.User, error) {
	u, ok := r.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubRepo) SetRole(_ context.Context, id int64, role string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = authz.Role(role)
	r.users[id] = u
	return nil
}

func (r *stubRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *stubRepo) CountUsers(context.Context) (int, int, error) {
	total := len(r.users)
	active := 0
	for _, u := range r.users {
		if u.IsActive {
			active++
		}
	}
	return total, active, nil
}

type stubIdentityStore struct {
	repo *stubRepo
}

func (s stubIdentityStore) FindByID(ctx context.Context, id int64) (*identity.Record, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &identity.Record{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), Active: u.IsActive}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sessionForUser builds a fresh session bound to the given user id. Loading
// from a cookieless request never touches Redis.
func sessionForUser(t *testing.T, id string) *shared.Session {
	t.Helper()
	sm := shared.NewSessionManager(nil, "test_session", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(id)
	return sess
}

func newService(t *testing.T, repo *stubRepo) (*users.Service, *identity.Provider) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	identities := identity.NewProvider(stubIdentityStore{repo: repo}, cache, time.Minute, discardLogger())
	return users.NewService(repo, identities, nil, discardLogger()), identities
}

func TestAssignRoleNormalizesAndPersists(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "a@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	svc, _ := newService(t, repo)

	require.NoError(t, svc.AssignRole(context.Background(), 1, 5, "  editor "))
	got, err := repo.GetUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleEditor, got.Role)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "a@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	svc, _ := newService(t, repo)

	err := svc.AssignRole(context.Background(), 1, 5, "SUPERUSER")
	require.Error(t, err)
	got, _ := repo.GetUser(context.Background(), 5)
	assert.Equal(t, authz.RoleAuthor, got.Role)
}

func TestAssignRoleDropsCachedIdentity(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "a@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	svc, identities := newService(t, repo)
	ctx := context.Background()

	// Warm the cache with the old role via a session resolution.
	sess := sessionForUser(t, "5")
	viewer := identities.Resolve(ctx, sess)
	require.Equal(t, authz.RoleAuthor, viewer.Role())

	require.NoError(t, svc.AssignRole(ctx, 1, 5, "EDITOR"))

	viewer = identities.Resolve(ctx, sess)
	assert.Equal(t, authz.RoleEditor, viewer.Role())
}

func TestDeactivationFailsClosedAtIdentity(t *testing.T) {
	repo := newStubRepo(users.User{ID: 5, Email: "a@newsroom.test", Role: authz.RoleAuthor, IsActive: true})
	svc, identities := newService(t, repo)
	ctx := context.Background()

	sess := sessionForUser(t, "5")
	require.True(t, identities.Resolve(ctx, sess).Authenticated())

	require.NoError(t, svc.SetActive(ctx, 1, 5, false))

	assert.False(t, identities.Resolve(ctx, sess).Authenticated())
}

func TestCounts(t *testing.T) {
	repo := newStubRepo(
		users.User{ID: 1, IsActive: true},
		users.User{ID: 2, IsActive: true},
		users.User{ID: 3, IsActive: false},
	)
	svc, _ := newService(t, repo)

	total, active, err := svc.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, active)
}
