// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stocktrack-be/internal/adapters/db"
	"github.com/ammerola/stocktrack-be/internal/adapters/storage"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/internal/pkg/config"
	"github.com/ammerola/stocktrack-be/internal/pkg/logger"
	"github.com/ammerola/stocktrack-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	if cfg.UsesMemoryStore() {
		slogger.Error("the worker needs the postgres ledger store; the memory store lives inside the api process")
		os.Exit(1)
	}

	ctx := context.Background()
	dbConfig := databaseConfig(cfg)

	database, err := db.NewDatabase(ctx, dbConfig, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	reader, err := db.OpenReconciliationReader(ctx, dbConfig, slogger)
	if err != nil {
		slogger.Error("failed to open reconciliation reader", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer reader.Close()

	archiver, err := initArchive(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize report archive", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool := database.Pool()
	// Alerts recheck status against the database, never the cache
	stockService := services.NewStockService(
		db.NewItemRepository(pool, slogger),
		db.NewLocationRepository(pool, slogger),
		db.NewStockEntryRepository(pool, slogger),
		nil,
		slogger,
	)
	reconService := services.NewReconciliationService(reader, archiver, slogger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError(slogger)),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck(slogger),
		Logger:          workers.NewAsynqLogger(slogger),
	})

	mux := workers.NewServeMux(
		workers.NewAlertProcessor(stockService, slogger),
		workers.NewReconciliationProcessor(reconService, slogger),
	)

	scheduler, err := newScheduler(redisOpt, cfg, slogger)
	if err != nil {
		slogger.Error("failed to configure scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
			srv.Shutdown()
			os.Exit(1)
		}
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.String("reconcile_cron", cfg.Ledger.ReconcileCron))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	if scheduler != nil {
		scheduler.Shutdown()
	}
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

// newScheduler registers the periodic reconciliation. An empty cron spec
// disables it.
func newScheduler(redisOpt asynq.RedisClientOpt, cfg *config.Config, logger *slog.Logger) (*asynq.Scheduler, error) {
	if cfg.Ledger.ReconcileCron == "" {
		logger.Info("periodic reconciliation disabled")
		return nil, nil
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   workers.NewAsynqLogger(logger),
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				logger.Error("failed to enqueue scheduled reconciliation", slog.String("error", err.Error()))
			}
		},
	})

	task, err := workers.NewReconcileTask("scheduler")
	if err != nil {
		return nil, err
	}

	entryID, err := scheduler.Register(cfg.Ledger.ReconcileCron, task, asynq.Unique(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to register reconciliation schedule: %w", err)
	}

	logger.Info("periodic reconciliation scheduled",
		slog.String("cron", cfg.Ledger.ReconcileCron),
		slog.String("entry_id", entryID))
	return scheduler, nil
}

func initArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ReportArchiver, error) {
	if cfg.AWS.S3Bucket == "" {
		if cfg.IsDevelopment() {
			return storage.NewReportArchive(storage.NewLocalStorage("./data/reports", logger), logger), nil
		}
		return nil, nil
	}

	store, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, err
	}
	return storage.NewReportArchive(store, logger), nil
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10, // Fewer connections for worker
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func handleError(logger *slog.Logger) func(ctx context.Context, task *asynq.Task, err error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.String("payload", string(task.Payload())),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	}
}

func exponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}

func healthCheck(logger *slog.Logger) func(error) {
	return func(err error) {
		if err != nil {
			logger.Error("worker health check failed", slog.String("error", err.Error()))
		}
	}
}
