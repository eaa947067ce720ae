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
	"github.com/feral-file/ff-chain-events/internal/block"
	"github.com/feral-file/ff-chain-events/internal/config"
	"github.com/feral-file/ff-chain-events/internal/emitter"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
	"github.com/feral-file/ff-chain-events/internal/providers/jetstream"
	"github.com/feral-file/ff-chain-events/internal/providers/tezos"
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
	cfg, err := config.LoadTezosEmitterConfig(*configFile, *envPath)
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
			"service": "tezos-event-emitter",
			"network": cfg.Tezos.ChainID.String(),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Tezos Event Emitter")

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
	httpClient := adapter.NewHTTPClient(cfg.Tezos.HTTPTimeout)
	signalR := adapter.NewSignalR()

	tzktClient := tezos.NewTzKTClient(cfg.Tezos.APIURL, httpClient)
	heads := block.NewBlockHeadProvider(
		tezos.NewTezosBlockFetcher(tzktClient),
		block.Config{
			TTL:         cfg.Tezos.BlockHeadTTL,
			StaleWindow: cfg.Tezos.BlockHeadStaleWindow,
		},
		clockAdapter,
	)

	// Initialize NATS publisher
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
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	tzSubscriber := tezos.NewSubscriber(tezos.Config{
		WebSocketURL:    cfg.Tezos.WebSocketURL,
		ChainID:         cfg.Tezos.ChainID,
		WorkerPoolSize:  cfg.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Worker.WorkerQueueSize,
		PageSize:        cfg.Tezos.PageSize,
	}, signalR, tzktClient, heads, clockAdapter)

	eventEmitter := emitter.NewEmitter(
		tzSubscriber,
		normalizer.New(clockAdapter),
		natsPublisher,
		dataStore,
		emitter.Config{
			Network:         cfg.Tezos.ChainID,
			StartBlock:      cfg.Tezos.StartLevel,
			CursorSaveFreq:  cfg.Emitter.CursorSaveFreq,
			CursorSaveDelay: cfg.Emitter.CursorSaveDelay,
			RestartDelay:    cfg.Emitter.RestartDelay,
			MaxErrors:       cfg.Emitter.MaxErrors,
			HealthyPeriod:   cfg.Emitter.HealthyPeriod,
		},
		clockAdapter,
	)
	defer eventEmitter.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := eventEmitter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "emitter"))
		exitCode = 1
	}
	cancel()

	// Give in-flight publishes time to settle
	time.Sleep(time.Second)

	logger.Info("Tezos Event Emitter stopped")
	if exitCode != 0 {
		logger.Flush(2 * time.Second)
		os.Exit(exitCode)
	}
}
