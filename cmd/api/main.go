// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stocktrack-be/internal/adapters/db"
	"github.com/ammerola/stocktrack-be/internal/adapters/memory"
	redis_a "github.com/ammerola/stocktrack-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stocktrack-be/internal/adapters/storage"
	"github.com/ammerola/stocktrack-be/internal/core/domain"
	"github.com/ammerola/stocktrack-be/internal/core/ports"
	"github.com/ammerola/stocktrack-be/internal/core/services"
	"github.com/ammerola/stocktrack-be/internal/handlers"
	"github.com/ammerola/stocktrack-be/internal/pkg/config"
	"github.com/ammerola/stocktrack-be/internal/pkg/logger"
	"github.com/ammerola/stocktrack-be/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting stocktrack api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("ledger_store", cfg.Ledger.Store),
		slog.String("overdraw_policy", cfg.Ledger.OverdrawPolicy),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds everything the HTTP server is built from
type dependencies struct {
	database       ports.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	reconReader    *db.ReconciliationReader

	cache     ports.CacheRepository
	publisher ports.EventPublisher

	transactions   *services.TransactionProcessor
	stock          *services.StockService
	catalog        *services.CatalogService
	reconciliation *services.ReconciliationService
	health         *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.reconReader != nil {
		d.reconReader.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
}

// repositories is the set of stores the services are built over
type repositories struct {
	uow          ports.UnitOfWork
	items        ports.ItemRepository
	locations    ports.LocationRepository
	categories   ports.CategoryRepository
	users        ports.UserRepository
	entries      ports.StockEntryRepository
	transactions ports.TransactionRepository
	source       ports.ReconciliationSource
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	policy, err := domain.ParseOverdrawPolicy(cfg.Ledger.OverdrawPolicy)
	if err != nil {
		return nil, err
	}

	repos, err := initializeStore(ctx, cfg, deps, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}

	var cachePinger handlers.Pinger
	var queues handlers.QueueInspector

	logger.Info("connecting to Redis", slog.String("address", cfg.Redis.Addr()))
	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Addr(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		if cfg.IsProduction() {
			deps.cleanup()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		// Outside production the API runs without cache and background jobs
		logger.Warn("redis unavailable, running without cache and task queue",
			slog.String("error", err.Error()))
	} else {
		deps.redisClient = redisClient
		cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
		deps.cache = cache
		cachePinger = cache

		asynqRedisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		}
		deps.asynqClient = asynq.NewClient(asynqRedisOpt)
		deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
		deps.publisher = workers.NewAsynqPublisher(deps.asynqClient, cache, cfg.Ledger.AlertDedupTTL, logger)
		queues = deps.asynqInspector
	}

	archiver, err := initializeArchive(ctx, cfg, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}

	deps.transactions = services.NewTransactionProcessor(services.ProcessorDeps{
		UnitOfWork:   repos.uow,
		Items:        repos.items,
		Locations:    repos.locations,
		Users:        repos.users,
		Transactions: repos.transactions,
		Publisher:    deps.publisher,
		Cache:        deps.cache,
	}, policy, logger)

	deps.stock = services.NewStockService(repos.items, repos.locations, repos.entries, deps.cache, logger)

	deps.catalog = services.NewCatalogService(services.CatalogDeps{
		Items:      repos.items,
		Locations:  repos.locations,
		Categories: repos.categories,
		Users:      repos.users,
		Entries:    repos.entries,
		Cache:      deps.cache,
	}, logger)

	deps.reconciliation = services.NewReconciliationService(repos.source, archiver, logger)

	deps.health = handlers.NewHealthHandler(handlers.HealthDeps{
		Database:    deps.database,
		Cache:       cachePinger,
		Queues:      queues,
		Version:     Version,
		Environment: cfg.App.Environment,
		Store:       cfg.Ledger.Store,
	}, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func initializeStore(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) (*repositories, error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory ledger store, data is lost on restart")
		store := memory.NewStore(logger)
		deps.database = store
		return &repositories{
			uow:          store,
			items:        store.Items(),
			locations:    store.Locations(),
			categories:   store.Categories(),
			users:        store.Users(),
			entries:      store.Entries(),
			transactions: store.Transactions(),
			source:       store,
		}, nil
	}

	dbConfig := databaseConfig(cfg)

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, dbConfig, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	database, err := db.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	reader, err := db.OpenReconciliationReader(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open reconciliation reader: %w", err)
	}
	deps.reconReader = reader

	pool := database.Pool()
	return &repositories{
		uow:          db.NewUnitOfWork(database),
		items:        db.NewItemRepository(pool, logger),
		locations:    db.NewLocationRepository(pool, logger),
		categories:   db.NewCategoryRepository(pool, logger),
		users:        db.NewUserRepository(pool, logger),
		entries:      db.NewStockEntryRepository(pool, logger),
		transactions: db.NewTransactionRepository(pool, logger),
		source:       reader,
	}, nil
}

// initializeArchive picks S3 when a bucket is configured, a local
// directory in development, and no archive otherwise.
func initializeArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ReportArchiver, error) {
	if cfg.AWS.S3Bucket != "" {
		store, err := storage.NewS3Storage(ctx, &storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize report storage: %w", err)
		}
		return storage.NewReportArchive(store, logger), nil
	}

	if cfg.IsDevelopment() {
		return storage.NewReportArchive(storage.NewLocalStorage("./data/reports", logger), logger), nil
	}

	logger.Info("no report bucket configured, reconciliation reports are not archived")
	return nil, nil
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	var health *handlers.HealthHandler
	if cfg.Server.EnableHealthCheck {
		health = deps.health
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Transactions:   deps.transactions,
		Stock:          deps.stock,
		Catalog:        deps.catalog,
		Reconciliation: deps.reconciliation,
		Publisher:      deps.publisher,
		Health:         health,
	}, handlers.RouterConfig{
		AllowedOrigins:    cfg.Security.AllowedOrigins,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitDuration,
		RequestTimeout:    cfg.Server.WriteTimeout,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		SecureHeaders:     cfg.Security.SecureHeaders,
		EnablePprof:       cfg.Server.EnablePprof && cfg.IsDevelopment(),
	}, logger)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, dbConfig *db.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
