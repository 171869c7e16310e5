package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/newsroom-hq/newsroom/internal/app"
	"github.com/newsroom-hq/newsroom/internal/articles"
	"github.com/newsroom-hq/newsroom/internal/auth"
	"github.com/newsroom-hq/newsroom/internal/dashboard"
	"github.com/newsroom-hq/newsroom/internal/guard"
	"github.com/newsroom-hq/newsroom/internal/identity"
	"github.com/newsroom-hq/newsroom/internal/media"
	"github.com/newsroom-hq/newsroom/internal/observability"
	"github.com/newsroom-hq/newsroom/internal/roles"
	"github.com/newsroom-hq/newsroom/internal/shared"
	"github.com/newsroom-hq/newsroom/internal/users"
	"github.com/newsroom-hq/newsroom/internal/view"
	"github.com/newsroom-hq/newsroom/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	identityStore := identity.NewPGStore(dbpool)
	identities := identity.NewProvider(identityStore, redisClient, cfg.IdentityCacheTTL, logger)

	metrics := observability.NewMetrics()
	routeGuard := guard.Middleware{Logger: logger, Templates: templates, Metrics: metrics}

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager, identities)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	articleRepo := articles.NewRepository(dbpool)
	articleService := articles.NewService(articleRepo, jobClient, auditLogger, logger)
	articleHandler := articles.NewHandler(logger, articleService, templates, csrfManager, routeGuard)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, identities, auditLogger, logger)
	userHandler := users.NewHandler(logger, userService, templates, csrfManager, routeGuard)

	rolesHandler := roles.NewHandler(logger, templates, csrfManager, routeGuard)

	statsService := dashboard.NewStatsService(articleService, userService, redisClient, cfg.StatsCacheTTL, logger)
	dashboardHandler := dashboard.NewHandler(logger, statsService, templates, csrfManager, routeGuard)

	var mediaHandler *media.Handler
	mediaStore, err := media.NewStorage(ctx, media.StorageConfig{
		Endpoint:  cfg.MediaEndpoint,
		AccessKey: cfg.MediaAccessKey,
		SecretKey: cfg.MediaSecretKey,
		UseSSL:    cfg.MediaUseSSL,
		Bucket:    cfg.MediaBucket,
	})
	if err != nil {
		logger.Warn("media storage unavailable", slog.Any("error", err))
	} else {
		mediaHandler = media.NewHandler(logger, mediaStore, templates, csrfManager, routeGuard)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger, routeGuard)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Identities:       identities,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		ArticlesHandler:  articleHandler,
		UsersHandler:     userHandler,
		RolesHandler:     rolesHandler,
		MediaHandler:     mediaHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
