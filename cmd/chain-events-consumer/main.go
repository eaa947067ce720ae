package main

import (
	"context"
	"errors"
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
	"github.com/feral-file/ff-chain-events/internal/consumer"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/materializer"
	"github.com/feral-file/ff-chain-events/internal/providers/jetstream"
	"github.com/feral-file/ff-chain-events/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadConsumerConfig(*configFile, *envPath)
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
			"service": "chain-events-consumer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Chain Events Consumer")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()

	// One connection serves both the pull consumer and the relay for
	// dead letters, descriptors and notifications
	natsCfg := jetstream.Config{
		URL:             cfg.NATS.URL,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		StreamMaxAge:    cfg.NATS.StreamMaxAge,
		DuplicateWindow: cfg.NATS.DuplicateWindow,
	}
	nc, js, err := natsJS.Connect(natsCfg.URL, jetstream.ConnectionOptions(natsCfg)...)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	natsPublisher := jetstream.NewPublisherWithJetStream(natsCfg, nc, js, jsonAdapter)
	if err := natsPublisher.EnsureStreams(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to provision streams", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	eventConsumer := consumer.NewConsumer(
		consumer.Config{
			ConsumerName:  cfg.NATS.ConsumerName,
			AckWait:       cfg.NATS.AckWait,
			MaxDeliver:    cfg.NATS.MaxDeliver,
			MaxAckPending: cfg.NATS.MaxAckPending,
			MaxInFlight:   cfg.MaxInFlight,
		},
		nc,
		js,
		dataStore,
		materializer.New(dataStore, clockAdapter),
		natsPublisher,
		jsonAdapter,
	)
	defer eventConsumer.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := eventConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "consumer"))
		exitCode = 1
	}
	cancel()

	// Run drains in-flight messages before returning; give it a moment
	time.Sleep(2 * time.Second)

	logger.Info("Chain Events Consumer stopped")
	if exitCode != 0 {
		logger.Flush(2 * time.Second)
		os.Exit(exitCode)
	}
}
