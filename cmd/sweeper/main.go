package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/config"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/providers/jetstream"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/sweeper"
)

var (
	configFile       = flag.String("config", "", "Path to configuration file")
	envPath          = flag.String("env", "config/", "Path to environment files")
	repairDuplicates = flag.Bool("repair-duplicates", false, "Remove duplicate events before starting the republish loop")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Level:           cfg.LogLevel,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db)

	if *repairDuplicates {
		removed, err := dataStore.RemoveDuplicateEvents(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to remove duplicate events", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Removed duplicate events", zap.Int64("removed", removed))
	}

	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// Redis is optional: without it the sweeper takes no lease and must run as a single replica
	var redisClient adapter.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() {
			_ = redisClient.Close()
		}()
		logger.InfoCtx(ctx, "Using Redis lease for the republish sweeper", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.WarnCtx(ctx, "Redis not configured, run a single sweeper replica")
	}

	natsPublisher, err := jetstream.NewPublisher(
		jetstream.Config{
			URL:             cfg.NATS.URL,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			StreamMaxAge:    cfg.NATS.StreamMaxAge,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
		}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer natsPublisher.Close()
	if err := natsPublisher.EnsureStreams(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to provision streams", zap.Error(err))
	}

	republishSweeper := sweeper.NewRepublishSweeper(
		sweeper.RepublishSweeperConfig{
			Interval:       cfg.Republish.Interval,
			BatchSize:      cfg.Republish.BatchSize,
			WorkerPoolSize: cfg.Republish.Worker.WorkerPoolSize,
			LockTTL:        cfg.Republish.LockTTL,
		},
		dataStore,
		natsPublisher,
		redisClient,
		clock,
	)

	logger.InfoCtx(ctx, "Initialized republish sweeper",
		zap.Duration("interval", cfg.Republish.Interval),
		zap.Int("batch_size", cfg.Republish.BatchSize),
		zap.Int("worker_pool_size", cfg.Republish.Worker.WorkerPoolSize),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := republishSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := republishSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
