// Package identity resolves the session's user into the read-only identity
// consumed by gate evaluations. It is the single ingestion boundary: role
// strings are normalized here, inactive accounts resolve to no identity, and
// a transiently unreachable user store surfaces as a "loading" viewer rather
// than as an error crossing into the permission functions.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsroom-hq/newsroom/internal/authz"
	"github.com/newsroom-hq/newsroom/internal/shared"
)

// Record is a user row as the store returns it, role still raw.
type Record struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// Store looks up user records by id. Implementations return
// shared.ErrNotFound for missing users.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Record, error)
}

// Provider resolves session user ids against the store through a short-lived
// Redis cache.
type Provider struct {
	store  Store
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProvider constructs a Provider. The cache client may be nil, in which
// case every resolution hits the store.
func NewProvider(store Store, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Provider {
	return &Provider{store: store, cache: cache, ttl: ttl, logger: logger}
}

// Resolve produces the viewer for the given session. It never returns an
// error: absent, malformed or deactivated identities yield an
// unauthenticated viewer, and store failures yield a loading viewer.
func (p *Provider) Resolve(ctx context.Context, sess *shared.Session) authz.Viewer {
	if sess == nil || sess.User() == "" {
		return authz.Viewer{}
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("identity: malformed session user id", slog.String("value", sess.User()))
		}
		return authz.Viewer{}
	}

	if rec, ok := p.cached(ctx, id); ok {
		return viewerFor(rec)
	}

	rec, err := p.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.Viewer{}
		}
		if p.logger != nil {
			p.logger.Warn("identity: store unavailable", slog.Int64("user_id", id), slog.Any("error", err))
		}
		return authz.Viewer{Loading: true}
	}
	if rec.Active {
		p.cacheSet(ctx, rec)
	}
	return viewerFor(rec)
}

// Invalidate drops the cached identity. Called after role changes,
// deactivation and logout so the next evaluation re-derives permissions.
func (p *Provider) Invalidate(ctx context.Context, userID int64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Del(ctx, cacheKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		if p.logger != nil {
			p.logger.Warn("identity: cache invalidate", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
}

func (p *Provider) cached(ctx context.Context, id int64) (*Record, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (p *Provider) cacheSet(ctx context.Context, rec *Record) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(rec.ID), data, p.ttl).Err(); err != nil && p.logger != nil {
		p.logger.Warn("identity: cache set", slog.Int64("user_id", rec.ID), slog.Any("error", err))
	}
}

// viewerFor converts a store record into a viewer. Deactivated accounts
// resolve to no identity: fail-closed, same as an unknown session.
func viewerFor(rec *Record) authz.Viewer {
	if rec == nil || !rec.Active {
		return authz.Viewer{}
	}
	return authz.Viewer{Identity: &authz.Identity{
		ID:     rec.ID,
		Email:  rec.Email,
		Name:   rec.Name,
		Role:   authz.NormalizeRole(rec.Role),
		Active: rec.Active,
	}}
}

func cacheKey(id int64) string {
	return "identity:" + strconv.FormatInt(id, 10)
}
