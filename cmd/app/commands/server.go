package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/vaultemu/internal/app"
	"github.com/allisson/vaultemu/internal/config"
)

type runnable interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RunServer registers the startup vaults and serves the management API, plus
// the metrics endpoint when enabled, until SIGINT/SIGTERM or the first server
// failure. Both servers are then stopped within ShutdownTimeout.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting vaultemu", slog.String("version", version))
	defer closeContainer(container, logger)

	directory, err := container.VaultDirectory()
	if err != nil {
		return fmt.Errorf("failed to initialize vault directory: %w", err)
	}
	for _, vault := range directory.List(ctx) {
		logger.Info("vault registered",
			slog.String("base_uri", vault.BaseURI()),
			slog.Any("aliases", vault.Aliases()),
			slog.String("recovery_level", vault.RecoveryLevel().String()),
		)
	}

	servers := map[string]runnable{}
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize management server: %w", err)
	}
	servers["management server"] = server

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		servers["metrics server"] = metricsServer
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, servers, cfg, logger)
}

// serve runs every server until ctx is done or one of them fails, then shuts all of them down.
func serve(ctx context.Context, servers map[string]runnable, cfg *config.Config, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	for name, server := range servers {
		g.Go(func() error {
			if err := server.Start(gctx); err != nil {
				return fmt.Errorf("%s error: %w", name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		} else {
			logger.Error("server error, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var shutdownErrors []error
		for name, server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("%s shutdown: %w", name, err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
