package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/api/middleware"
	"github.com/feral-file/ff-chain-events/internal/api/rest"
	"github.com/feral-file/ff-chain-events/internal/fanout"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/ratelimit"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/webhook"
)

// Config holds the server configuration
type Config struct {
	Debug          bool
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
}

// New creates a new API server and registers its routes
func New(
	cfg Config,
	st store.Store,
	ns fanout.Namespace,
	transport *fanout.Transport,
	webhookHandler *webhook.Handler,
	limiter ratelimit.Limiter,
	authenticator *middleware.Authenticator,
) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(cfg.AllowedOrigins))

	auth := middleware.Auth(authenticator)

	rest.SetupRoutes(router, rest.NewHandler(st, ns), auth)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live fan-out. Subscription changes and sync acks travel over the socket
	router.GET("/ws", auth, func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no user associated with the request"})
			return
		}
		transport.Serve(c.Writer, c.Request, userID)
	})

	// Signed by the sender, so it carries no user authentication
	router.POST("/webhooks/events", ratelimit.Middleware(limiter), webhookHandler.Receive)

	return &Server{
		config: cfg,
		router: router,
	}
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it is shut down
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
// Hijacked websocket connections are not tracked by http.Server and must be closed by the caller
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

// OriginChecker returns a websocket origin check for the allowed origins.
// An empty list accepts every origin
func OriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
