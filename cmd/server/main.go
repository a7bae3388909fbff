package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cypherlabdev/odds-reconciler-service/internal/cache"
	"github.com/cypherlabdev/odds-reconciler-service/internal/classifier"
	"github.com/cypherlabdev/odds-reconciler-service/internal/config"
	httpHandler "github.com/cypherlabdev/odds-reconciler-service/internal/handler/http"
	"github.com/cypherlabdev/odds-reconciler-service/internal/ingest"
	"github.com/cypherlabdev/odds-reconciler-service/internal/lock"
	"github.com/cypherlabdev/odds-reconciler-service/internal/messaging"
	"github.com/cypherlabdev/odds-reconciler-service/internal/reconciler"
	"github.com/cypherlabdev/odds-reconciler-service/internal/scheduler"
	"github.com/cypherlabdev/odds-reconciler-service/internal/service"
	"github.com/cypherlabdev/odds-reconciler-service/internal/sources"
	"github.com/cypherlabdev/odds-reconciler-service/internal/storage/memory"
	"github.com/cypherlabdev/odds-reconciler-service/internal/storage/postgres"
	"github.com/cypherlabdev/odds-reconciler-service/pkg/teams"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	// Load .env before viper reads the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("failed to load .env file")
	}

	// Load configuration
	configPath := os.Getenv("ODDS_RECONCILER_CONFIG_FILE")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Str("config", configPath).Msg("starting odds-reconciler-service")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load team registry
	registry, err := loadRegistry(cfg.Registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load team registry")
	}
	logger.Info().Strs("sports", registry.Sports()).Msg("team registry loaded")

	// Create store
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create store")
	}
	defer store.Close()

	for _, sport := range registry.Sports() {
		if err := store.SeedTeams(ctx, registry.Teams(sport)); err != nil {
			logger.Fatal().Err(err).Str("sport", sport).Msg("failed to seed teams")
		}
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("store ready")

	// Create Redis cache
	redisCache := cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	defer redisCache.Close()

	// Test Redis connection
	if err := redisCache.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Create game-creation locker
	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create locker")
	}
	defer closeLocker()

	// Create ingestion path
	normalizers := sources.NewRegistry(
		sources.NewPolymarket(registry, cfg.Registry.Sport, logger),
		sources.NewKalshi(registry, cfg.Registry.Sport, cfg.Sources.KalshiCloseOffset, logger),
		sources.NewOddsAPI(cfg.Registry.Sport, cfg.Sources.OddsAPIRegion, logger),
	)
	buffer := ingest.NewBuffer(cfg.Ingest.BufferCapacity, logger)
	ingestor := ingest.NewIngestor(normalizers, buffer, logger)

	// Create reconciliation services
	rec := reconciler.NewReconciler(registry, store, locker, cfg.Reconciler.ToReconcilerParams(), logger)
	snapshots := service.NewSnapshotService(
		store,
		redisCache,
		classifier.NewClassifier(logger),
		cfg.Snapshots.ToSnapshotParams(),
		logger,
	)
	queries := service.NewQueryService(store, redisCache, registry, logger)
	pipeline := service.NewPipeline(
		store,
		buffer,
		rec,
		snapshots,
		service.PipelineConfig{Workers: cfg.Scheduler.Workers},
		logger,
	)
	logger.Info().Msg("reconciliation services initialized")

	// Create cycle scheduler
	cycles, err := scheduler.NewScheduler(cfg.Scheduler.ToSchedulerConfig(), pipeline, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create scheduler")
	}
	cycles.Start(ctx)

	// Create Kafka consumer
	if cfg.Kafka.Enabled {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.GroupID,
			},
			ingestor,
			logger,
		)
		defer consumer.Close()

		// Start Kafka consumer in goroutine
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	}

	// Setup HTTP server routes
	oddsHandler := httpHandler.NewOddsHandler(queries, ingestor, logger)
	router := httpHandler.NewRouter(
		httpHandler.RouterConfig{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		oddsHandler,
		queries,
		logger,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer and pending cycles
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cycles.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("scheduler shutdown failed")
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "odds-reconciler").Logger()
}

// loadRegistry returns the configured team registry, or the built-in one
func loadRegistry(cfg config.RegistryConfig) (*teams.Registry, error) {
	if cfg.Path == "" {
		return teams.DefaultRegistry()
	}
	return teams.LoadRegistry(cfg.Path)
}

// newStore creates the configured store
func newStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (service.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newLocker creates the configured game-creation locker and its close func
func newLocker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (reconciler.Locker, func(), error) {
	if cfg.Lock.Driver == config.LockLocal {
		return lock.NewLocalLocker(), func() {}, nil
	}

	locker := lock.NewRedisLocker(lock.RedisLockerConfig{
		Addr:           cfg.Redis.Addr,
		Password:       cfg.Redis.Password,
		DB:             cfg.Redis.DB,
		Prefix:         cfg.Lock.Prefix,
		TTL:            cfg.Lock.TTL,
		RetryInterval:  cfg.Lock.RetryInterval,
		AcquireTimeout: cfg.Lock.AcquireTimeout,
	}, logger)
	if err := locker.Ping(ctx); err != nil {
		locker.Close()
		return nil, nil, fmt.Errorf("failed to connect lock Redis: %w", err)
	}
	return locker, func() { locker.Close() }, nil
}
