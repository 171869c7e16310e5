// Package jobs holds background task definitions and the Asynq worker glue.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newsroom-hq/newsroom/internal/dashboard"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPurge removes expired session rows from the database.
	TaskSessionsPurge = "sessions:purge"
	// TaskStatsWarmup refreshes the cached dashboard statistics.
	TaskStatsWarmup = "dashboard:stats_warmup"
	// TaskArticlePublish publishes an article whose scheduled time arrived.
	TaskArticlePublish = "articles:publish"
)

type articlePublishPayload struct {
	ArticleID int64 `json:"article_id"`
}

// NewSessionsPurgeTask constructs the purge task. It carries no payload.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsPurge, nil)
}

// NewStatsWarmupTask constructs the stats warmup task.
func NewStatsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskStatsWarmup, nil)
}

// NewArticlePublishTask constructs a deferred publish task for one article.
func NewArticlePublishTask(articleID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(articlePublishPayload{ArticleID: articleID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArticlePublish, payload), nil
}

// ArticlePublisher runs the publish transition for a scheduled article.
type ArticlePublisher interface {
	PublishScheduled(ctx context.Context, id int64) error
}

// NewArticlePublishHandler executes a scheduled publish. A malformed payload
// is dropped rather than retried.
func NewArticlePublishHandler(publisher ArticlePublisher, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload articlePublishPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := publisher.PublishScheduled(ctx, payload.ArticleID); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("scheduled article published", slog.Int64("article_id", payload.ArticleID))
		}
		return nil
	}
}

// NewSessionsPurgeHandler deletes session rows whose expiry has passed. The
// Redis copies expire on their own; this keeps the audit trail in Postgres
// from growing without bound.
func NewSessionsPurgeHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("purged expired sessions", slog.Int64("deleted", tag.RowsAffected()))
		}
		return nil
	}
}

// NewStatsWarmupHandler drops and repopulates the cached dashboard counts so
// the first viewer after the cron tick gets fresh numbers without waiting.
func NewStatsWarmupHandler(stats *dashboard.StatsService, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		stats.Invalidate(ctx)
		if _, err := stats.SiteStats(ctx); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("dashboard stats warmed")
		}
		return nil
	}
}
