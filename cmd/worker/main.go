package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/newsroom-hq/newsroom/internal/app"
	"github.com/newsroom-hq/newsroom/internal/articles"
	"github.com/newsroom-hq/newsroom/internal/dashboard"
	jobmetrics "github.com/newsroom-hq/newsroom/internal/jobs"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/users"
	"github.com/newsroom-hq/newsroom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	articleService := articles.NewService(articles.NewRepository(pool), nil, shared.NewAuditLogger(pool), logger)
	userService := users.NewService(users.NewRepository(pool), nil, nil, logger)
	statsService := dashboard.NewStatsService(articleService, userService, redisClient, cfg.StatsCacheTTL, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   jobmetrics.NewMetrics(nil),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionsPurge, Handler: jobs.NewSessionsPurgeHandler(pool, logger)},
			{Type: jobs.TaskStatsWarmup, Handler: jobs.NewStatsWarmupHandler(statsService, logger)},
			{Type: jobs.TaskArticlePublish, Handler: jobs.NewArticlePublishHandler(articleService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewSessionsPurgeTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/10 * * * *", Task: jobs.NewStatsWarmupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
