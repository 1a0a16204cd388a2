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
	"github.com/joho/godotenv"

	"github.com/mzeesam/QDeskPro-sub003/internal/app"
	"github.com/mzeesam/QDeskPro-sub003/internal/dailyledger"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/journal"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/periods"
	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
	"github.com/mzeesam/QDeskPro-sub003/internal/platform/cache"
	"github.com/mzeesam/QDeskPro-sub003/internal/platform/db"
	"github.com/mzeesam/QDeskPro-sub003/internal/reports"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
	"github.com/mzeesam/QDeskPro-sub003/jobs"
	"github.com/mzeesam/QDeskPro-sub003/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN, migrations.FS, "."); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

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

	auditLogger := shared.NewAuditLogger(pool)
	opsRepo := operations.NewRepository(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger)

	journalRepo := journal.NewRepository(pool)
	journalService := journal.NewService(journalRepo, accountsRepo, opsRepo, auditLogger, periodsService)

	dailyRepo := dailyledger.NewRepository(pool)
	cascadeLock := shared.NewTenantLock(redisClient, 5*time.Minute)
	dailyService := dailyledger.NewService(logger, dailyRepo, opsRepo, cascadeLock, jobClient, cfg.CascadeMaxDays)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(logger, reportsRepo, opsRepo, dailyRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accounts.NewHandler(logger, accountsService),
		JournalHandler:     journal.NewHandler(logger, journalService),
		PeriodsHandler:     periods.NewHandler(logger, periodsService),
		ReportsHandler:     reports.NewHandler(logger, reportsService),
		DailyLedgerHandler: dailyledger.NewHandler(logger, dailyService),
		JobHandler:         jobs.NewHandler(asynq.NewInspector(redisOpts), logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
}
