package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	cacheport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/cache"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/usecase/balance"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/usecase/provisioning"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/usecase/query"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/cache"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/metrics"
	timeProvider "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	if warnings := cfg.Warnings(); len(warnings) > 0 {
		log.Printf("Warning: potential issues in production configuration: %v", warnings)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production, cfg.Logger.Level)
	defer func() { _ = appLogger.Flush() }()

	tp := timeProvider.NewRealTimeProvider()
	ctx := context.Background()

	var promMetrics *metrics.PrometheusMetrics
	var serviceMetrics coreport.Metrics = metrics.NewNoopMetrics()
	if cfg.Metrics.Enabled {
		promMetrics = metrics.NewPrometheusMetrics()
		serviceMetrics = promMetrics
	}

	healthChecks := map[string]handler.Pinger{}

	// Ledger store
	uow, closeStore, err := openStore(ctx, cfg, appLogger, tp, promMetrics, healthChecks)
	if err != nil {
		appLogger.Error("Failed to open ledger store", map[string]any{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
		os.Exit(1)
	}
	defer closeStore()

	// Optional Redis for cached views and idempotent writes
	var redisClient *redis.Client
	var viewCache cacheport.ViewCache
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Error("Failed to connect to redis", map[string]any{
				"address": cfg.Redis.Address,
				"error":   err.Error(),
			})
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()

		viewCache = cache.NewRedisViewCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL)
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Use cases
	balanceOpts := []balance.Option{
		balance.WithMetrics(serviceMetrics),
		balance.WithRetryPolicy(balance.RetryPolicy{
			MaxAttempts:  cfg.Ledger.MaxRetries,
			BaseDelay:    cfg.Ledger.RetryBaseDelay,
			MaxDelay:     cfg.Ledger.RetryMaxDelay,
			JitterFactor: balance.DefaultRetryPolicy().JitterFactor,
		}),
	}
	if cfg.Ledger.SerializeInProcess {
		balanceOpts = append(balanceOpts, balance.WithSerializer(balance.NewWalletSerializer()))
	}
	if viewCache != nil {
		balanceOpts = append(balanceOpts, balance.WithViewCache(viewCache))
	}

	balanceService := balance.NewService(uow, tp, appLogger, balanceOpts...)
	provisioningService := provisioning.NewService(uow, serviceMetrics, tp, appLogger)
	queryService := query.NewService(uow, viewCache, appLogger)

	// Router
	router := gin.New()

	middlewareOpts := routes.MiddlewareOptions{
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		IdempotencyStore:       redisClient,
		IdempotencyPrefix:      cfg.Redis.KeyPrefix,
		IdempotencyTTL:         cfg.Redis.IdempotencyTTL,
		IdempotencyInFlightTTL: cfg.Server.WriteTimeout,
	}
	handlers := routes.Handlers{
		User:   handler.NewUserHandler(provisioningService, queryService, appLogger),
		Wallet: handler.NewWalletHandler(balanceService, queryService, appLogger),
		Health: handler.NewHealthHandler(healthChecks),
	}
	if promMetrics != nil {
		middlewareOpts.HTTPMetrics = promMetrics
		handlers.Metrics = promMetrics.Handler()
	}

	routes.SetupMiddlewares(router, appLogger, middlewareOpts)
	routes.SetupRoutes(router, cfg.Server.BasePath, cfg.Metrics.Path, handlers)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"address":  server.Addr,
			"env":      cfg.Environment,
			"driver":   cfg.Database.Driver,
			"redis":    cfg.Redis.Enabled,
			"basePath": cfg.Server.BasePath,
			"logLevel": appLogger.GetLevel().String(),
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// openStore connects the configured ledger store and runs migrations for SQL drivers
func openStore(
	ctx context.Context,
	cfg *config.Config,
	appLogger coreport.Logger,
	tp coreport.TimeProvider,
	promMetrics *metrics.PrometheusMetrics,
	healthChecks map[string]handler.Pinger,
) (persistence.UnitOfWork, func(), error) {
	if cfg.Database.Driver == "memory" {
		appLogger.Warn("Using the in-memory ledger store, data is lost on restart", nil)
		return memory.NewStore(), func() {}, nil
	}

	dbManager := database.NewManager(database.NewConfig(cfg.Database, cfg.Logger.Level), appLogger, tp)
	db, err := dbManager.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := dbManager.Close(); err != nil {
			appLogger.Error("Failed to close database", map[string]any{"error": err.Error()})
		}
	}

	if err := migration.NewMigrationManager(db, appLogger, tp).MigrateAll(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	if promMetrics != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = promMetrics.RegisterDBStats(sqlDB, cfg.Database.Database)
		}
		if err != nil {
			appLogger.Warn("Database pool metrics disabled", map[string]any{"error": err.Error()})
		}
	}

	healthChecks["database"] = dbManager
	return dbManager.CreateUnitOfWork(), closeDB, nil
}
