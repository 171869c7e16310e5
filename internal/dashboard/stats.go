// Package dashboard composes the role-aware landing page of the console.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/newsroom-hq/newsroom/internal/articles"
)

const statsCacheKey = "dashboard:stats"

// Stats carries the headline numbers shown on the dashboard. Site-wide
// fields are shared across viewers; the Own* fields are per author.
type Stats struct {
	Published    int `json:"published"`
	InReview     int `json:"in_review"`
	Drafts       int `json:"drafts"`
	ActiveUsers  int `json:"active_users"`
	OwnDrafts    int `json:"-"`
	OwnPublished int `json:"-"`
}

// ArticleCounter provides article statistics.
type ArticleCounter interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	AuthorCounts(ctx context.Context, authorID int64) (drafts, published int, err error)
}

// UserCounter provides user statistics.
type UserCounter interface {
	Counts(ctx context.Context) (total, active int, err error)
}

// StatsService aggregates dashboard numbers. Site-wide counts are cached in
// Redis and deduplicated with singleflight so a burst of dashboard loads
// issues one set of queries.
type StatsService struct {
	articles ArticleCounter
	users    UserCounter
	cache    *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

// NewStatsService constructs a StatsService. The cache client may be nil, in
// which case every call hits the repositories.
func NewStatsService(articleCounter ArticleCounter, userCounter UserCounter, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsService {
	return &StatsService{articles: articleCounter, users: userCounter, cache: cache, ttl: ttl, logger: logger}
}

// SiteStats returns the site-wide counts.
func (s *StatsService) SiteStats(ctx context.Context) (Stats, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var stats Stats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return stats, nil
			}
		}
	}

	v, err, _ := s.group.Do(statsCacheKey, func() (any, error) {
		return s.loadSiteStats(ctx)
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// AuthorStats returns the viewer's own article counts on top of the
// site-wide numbers.
func (s *StatsService) AuthorStats(ctx context.Context, authorID int64) (Stats, error) {
	stats, err := s.SiteStats(ctx)
	if err != nil {
		return Stats{}, err
	}
	drafts, published, err := s.articles.AuthorCounts(ctx, authorID)
	if err != nil {
		return Stats{}, err
	}
	stats.OwnDrafts = drafts
	stats.OwnPublished = published
	return stats, nil
}

// Invalidate drops the cached site-wide counts.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("dashboard: invalidate stats cache", slog.Any("error", err))
	}
}

func (s *StatsService) loadSiteStats(ctx context.Context) (Stats, error) {
	counts, err := s.articles.StatusCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	_, active, err := s.users.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Published:   counts[articles.StatusPublished],
		InReview:    counts[articles.StatusInReview],
		Drafts:      counts[articles.StatusDraft],
		ActiveUsers: active,
	}
	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, raw, s.ttl).Err(); err != nil && s.logger != nil {
				s.logger.Warn("dashboard: cache stats", slog.Any("error", err))
			}
		}
	}
	return stats, nil
}
