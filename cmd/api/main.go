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
	"github.com/feral-file/ff-chain-events/internal/api/middleware"
	"github.com/feral-file/ff-chain-events/internal/api/server"
	"github.com/feral-file/ff-chain-events/internal/config"
	"github.com/feral-file/ff-chain-events/internal/fanout"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
	"github.com/feral-file/ff-chain-events/internal/providers/jetstream"
	"github.com/feral-file/ff-chain-events/internal/ratelimit"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/webhook"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Chain Events API")

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

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	ioAdapter := adapter.NewIO()
	natsJS := adapter.NewNatsJetStream()

	// The same connection carries webhook publishes and the notification listener
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
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", natsCfg.URL))
	}
	natsPublisher := jetstream.NewPublisherWithJetStream(natsCfg, nc, js, jsonAdapter)
	defer natsPublisher.Close()
	if err := natsPublisher.EnsureStreams(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to provision streams", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", nc.ConnectedUrl()))

	// Live fan-out
	namespace := fanout.NewNamespace(dataStore)
	transport := fanout.NewTransport(namespace, fanout.TransportConfig{
		SendBufferSize: cfg.Fanout.SendBufferSize,
		SyncTimeout:    cfg.Fanout.SyncTimeout,
		CheckOrigin:    server.OriginChecker(cfg.Server.AllowedOrigins),
	}, clock)
	listener := fanout.NewListener(fanout.ListenerConfig{
		InactiveThreshold: cfg.Fanout.InactiveThreshold,
	}, js, namespace, jsonAdapter)

	// Redis backs the webhook rate limit across replicas, local buckets are used without it
	var redisClient adapter.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() {
			_ = redisClient.Close()
		}()
	} else {
		logger.WarnCtx(ctx, "Redis not configured, webhook rate limits are per instance")
	}
	limiter, err := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.Webhook.RateLimit,
		Burst:             cfg.Webhook.RateBurst,
	}, redisClient, clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
	}
	defer limiter.Close()

	if cfg.Webhook.Secret == "" {
		logger.WarnCtx(ctx, "Webhook secret not configured, webhook deliveries will be rejected")
	}
	webhookHandler := webhook.NewHandler(webhook.Config{
		Secret:             cfg.Webhook.Secret,
		TimestampTolerance: cfg.Webhook.TimestampTolerance,
		MaxBodySize:        cfg.Webhook.MaxBodySize,
	}, normalizer.New(clock), natsPublisher, ioAdapter, clock)

	authenticator, err := middleware.NewAuthenticator(middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to configure authentication", zap.Error(err))
	}

	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, dataStore, namespace, transport, webhookHandler, limiter, authenticator)

	errCh := make(chan error, 2)
	go func() {
		if err := listener.Run(ctx); err != nil {
			errCh <- fmt.Errorf("notification listener: %w", err)
		}
	}()
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("server: %w", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err)
		exitCode = 1
	}
	cancel()

	// The original ctx is canceled at this point
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, fmt.Errorf("server forced to shutdown: %w", err))
		exitCode = 1
	}

	// Hijacked websocket connections are not closed by the http server
	namespace.DisconnectAll()

	logger.Info("API server stopped")
	if exitCode != 0 {
		shutdownCancel()
		limiter.Close()
		natsPublisher.Close()
		logger.Flush(2 * time.Second)
		os.Exit(exitCode)
	}
}
