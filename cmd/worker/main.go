package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/mzeesam/QDeskPro-sub003/internal/app"
	"github.com/mzeesam/QDeskPro-sub003/internal/dailyledger"
	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
	"github.com/mzeesam/QDeskPro-sub003/internal/platform/cache"
	"github.com/mzeesam/QDeskPro-sub003/internal/platform/db"
	"github.com/mzeesam/QDeskPro-sub003/internal/reports"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
	"github.com/mzeesam/QDeskPro-sub003/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("redis connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	opsRepo := operations.NewRepository(pool)
	dailyRepo := dailyledger.NewRepository(pool)
	cascadeLock := shared.NewTenantLock(redisClient, 5*time.Minute)
	// no enqueuer here: queued windows of any size run inline in the worker
	dailyService := dailyledger.NewService(logger, dailyRepo, opsRepo, cascadeLock, nil, 1<<30)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(logger, reportsRepo, opsRepo, dailyRepo)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCascadeRecalc, Handler: jobs.NewCascadeHandler(logger, dailyService)},
			{Type: jobs.TaskLedgerIntegrity, Handler: jobs.NewLedgerIntegrityHandler(logger, reportsService, opsRepo, cfg.IntegrityScanConcurrency)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewLedgerIntegrityTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
