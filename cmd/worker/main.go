package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/paintworks/paintworks/internal/app"
	"github.com/paintworks/paintworks/internal/formulations"
	"github.com/paintworks/paintworks/internal/items"
	jobmetrics "github.com/paintworks/paintworks/internal/jobs"
	"github.com/paintworks/paintworks/internal/platform/cache"
	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
	"github.com/paintworks/paintworks/jobs"
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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// Shares the namespace with the API so a refresh invalidates its views.
	catalogCache := cache.NewVersioned(redisClient, "catalog", cfg.CacheTTL)
	auditLogger := shared.NewAuditLogger(pool)

	itemsService := items.NewService(items.NewRepository(pool), auditLogger, catalogCache, shared.NewFormatter(cfg.AppLocale))
	formulationsService := formulations.NewService(formulations.NewRepository(pool), itemsService, formulations.ServiceConfig{
		Cache: catalogCache,
		Audit: auditLogger,
	})

	refreshJob := jobs.NewRefreshCostsJob(formulationsService, logger, jobmetrics.NewMetrics(nil))
	refreshJob.Redis = redisClient
	refreshTask, err := jobs.NewRefreshCostsTask(jobs.RefreshCostsPayload{Trigger: "cron"})
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRefreshCosts, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
