// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/vaultemu/internal/config"
	"github.com/allisson/vaultemu/internal/metrics"
	vaultHTTP "github.com/allisson/vaultemu/internal/vault/http"
	vaultUseCase "github.com/allisson/vaultemu/internal/vault/usecase"
)

// Server represents the management API HTTP server.
type Server struct {
	server    *http.Server
	router    *gin.Engine
	directory vaultUseCase.VaultDirectory
	logger    *slog.Logger
	stop      context.CancelFunc
}

// NewServer creates a new HTTP server. SetupRouter must be called before Start.
func NewServer(
	directory vaultUseCase.VaultDirectory,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		directory: directory,
		logger:    logger,
		server:    newHTTPServer(host, port, nil),
	}
}

// SetupRouter builds the gin engine with every middleware and route.
// meterProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	cfg *config.Config,
	vaultHandler *vaultHTTP.VaultHandler,
	meterProvider metric.MeterProvider,
) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel

	gin.SetMode(cfg.GetGinMode())
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, cfg.MetricsNamespace, "/health", "/ready"))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	management := router.Group("/management")
	if cfg.RateLimitEnabled {
		management.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	vaults := management.Group("/vault")
	{
		vaults.POST("", vaultHandler.CreateHandler)
		vaults.GET("", vaultHandler.ListHandler)
		vaults.DELETE("", vaultHandler.DeleteHandler)
		vaults.GET("/deleted", vaultHandler.ListDeletedHandler)
		vaults.PUT("/recover", vaultHandler.RecoverHandler)
		vaults.DELETE("/purge", vaultHandler.PurgeHandler)
		vaults.PATCH("/alias", vaultHandler.UpdateAliasHandler)
		vaults.PUT("/time/all", vaultHandler.TimeShiftAllHandler)
		vaults.PUT("/time", vaultHandler.TimeShiftVaultHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router
	return listenAndServe(s.server, s.logger, "management server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down management server")
	if s.stop != nil {
		s.stop()
	}
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the vault directory is available.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.directory == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"components": gin.H{
				"directory": "error",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"components": gin.H{
			"directory": "ok",
			"vaults":    len(s.directory.List(c.Request.Context())),
		},
	})
}
