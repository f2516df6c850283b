package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/paintworks/paintworks/internal/app"
	"github.com/paintworks/paintworks/internal/clients"
	"github.com/paintworks/paintworks/internal/formulations"
	"github.com/paintworks/paintworks/internal/items"
	"github.com/paintworks/paintworks/internal/observability"
	"github.com/paintworks/paintworks/internal/platform/cache"
	"github.com/paintworks/paintworks/internal/platform/db"
	"github.com/paintworks/paintworks/internal/shared"
	"github.com/paintworks/paintworks/internal/supplieritems"
	"github.com/paintworks/paintworks/internal/suppliers"
	"github.com/paintworks/paintworks/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.PGAutoMigrate {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// The API keeps serving without Redis; reads go straight to Postgres and
	// refreshes run inline.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	catalogCache := cache.NewVersioned(redisClient, "catalog", cfg.CacheTTL)

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()
	formatter := shared.NewFormatter(cfg.AppLocale)

	itemsService := items.NewService(items.NewRepository(dbpool), auditLogger, catalogCache, formatter)
	formulationsService := formulations.NewService(formulations.NewRepository(dbpool), itemsService, formulations.ServiceConfig{
		Cache:   catalogCache,
		Audit:   auditLogger,
		Metrics: metrics,
	})
	clientsService := clients.NewService(clients.NewRepository(dbpool), auditLogger, clients.ServiceConfig{PhoneRegion: cfg.AppPhoneRegion})
	suppliersService := suppliers.NewService(suppliers.NewRepository(dbpool), auditLogger, suppliers.ServiceConfig{PhoneRegion: cfg.AppPhoneRegion})
	supplierItemsService := supplieritems.NewService(supplieritems.NewRepository(dbpool), itemsService, auditLogger, shared.NewIdempotencyStore(dbpool))

	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		formulationsService.SetEnqueuer(jobClient)

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		ItemsHandler:        items.NewHandler(logger, itemsService),
		FormulationsHandler: formulations.NewHandler(logger, formulationsService),
		ClientsHandler:      clients.NewHandler(logger, clientsService),
		SuppliersHandler:    suppliers.NewHandler(logger, suppliersService),
		SupplierItemHandler: supplieritems.NewHandler(logger, supplierItemsService),
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
