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
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
	"github.com/feral-file/ff-chain-events/internal/providers/ethereum"
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
	cfg, err := config.LoadEthereumEmitterConfig(*configFile, *envPath)
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
			"service": "ethereum-event-emitter",
			"network": cfg.Ethereum.ChainID.String(),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ethereum Event Emitter", zap.String("mode", cfg.Ethereum.Mode))

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

	// Dial the node over websocket: both subscription modes need push notifications
	ethDialer := adapter.NewEthClientDialer()
	adapterEthClient, err := ethDialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("websocket_url", cfg.Ethereum.WebSocketURL))
	}
	defer adapterEthClient.Close()
	ethereumClient := ethereum.NewClient(adapterEthClient, cfg.Ethereum.LogRangeSize)

	heads := block.NewBlockHeadProvider(
		ethereum.NewEthereumBlockFetcher(adapterEthClient),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
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

	// Initialize Ethereum subscriber
	subscriberCfg := ethereum.Config{
		WebSocketURL: cfg.Ethereum.WebSocketURL,
		ChainID:      cfg.Ethereum.ChainID,
	}
	var subscriber messaging.Subscriber
	switch cfg.Ethereum.Mode {
	case config.ETHEREUM_MODE_LOGS:
		subscriber = ethereum.NewLogSubscriber(subscriberCfg, ethereumClient, dataStore, heads, clockAdapter)
	default:
		subscriber = ethereum.NewHeaderSubscriber(subscriberCfg, ethereumClient, heads, clockAdapter)
	}

	eventEmitter := emitter.NewEmitter(
		subscriber,
		normalizer.New(clockAdapter),
		natsPublisher,
		dataStore,
		emitter.Config{
			Network:          cfg.Ethereum.ChainID,
			StartBlock:       cfg.Ethereum.StartBlock,
			CursorSaveFreq:   cfg.Emitter.CursorSaveFreq,
			CursorSaveDelay:  cfg.Emitter.CursorSaveDelay,
			RestartDelay:     cfg.Emitter.RestartDelay,
			MaxErrors:        cfg.Emitter.MaxErrors,
			HealthyPeriod:    cfg.Emitter.HealthyPeriod,
			WatchedAddresses: cfg.Ethereum.WatchedAddresses,
			WatchRetryDelay:  cfg.Ethereum.WatchRetryDelay,
			WatchMaxRetries:  cfg.Ethereum.WatchMaxRetries,
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

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Ethereum Event Emitter stopped")
	if exitCode != 0 {
		logger.Flush(2 * time.Second)
		os.Exit(exitCode)
	}
}
