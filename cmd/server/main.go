package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/ledgercore/internal/adapter/http"
	"github.com/iho/ledgercore/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgercore/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgercore/internal/adapter/repository/redis"
	"github.com/iho/ledgercore/internal/infrastructure/config"
	"github.com/iho/ledgercore/internal/infrastructure/logger"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/infrastructure/postgres"
	"github.com/iho/ledgercore/internal/infrastructure/redis"
	"github.com/iho/ledgercore/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	feeRate, err := cfg.FeeRate()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("invalid transfer fee rate")
	}

	system := usecase.SystemAccounts{
		GenesisAccountID: cfg.GenesisAccountID,
		RevenueAccountID: cfg.RevenueAccountID,
		Currency:         cfg.SystemAccountCurrency,
	}

	// Provision well-known system accounts
	if err := usecase.SeedSystemAccounts(ctx, accountRepo, system, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to seed system accounts")
	}

	// Initialize use cases
	m := metrics.New(prometheus.DefaultRegisterer)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, idGen, retrier, cache, m, feeRate, system)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen, cache, m)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   accountHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
