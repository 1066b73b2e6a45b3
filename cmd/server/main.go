// Command server runs the Applitrack API gateway.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"applitrack/internal/bootstrap"
	"applitrack/internal/config"
	"applitrack/internal/middleware"
	"applitrack/internal/models"
	"applitrack/internal/observability"
	"applitrack/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.Logger = middleware.NewLogger(cfg.Env)
	slog.SetDefault(middleware.Logger)

	if err := run(ctx, cfg, nil); err != nil {
		log.Fatal(err)
	}
}

// run serves until ctx is cancelled or the listener fails, then tears down
// the server, the runtime and tracing in that order. A nil ln listens on cfg.Port.
func run(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	models.SetExposeDetails(!cfg.IsProduction())

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "applitrack-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}

	srv := server.NewServer(cfg, rt.Backend, rt.Redis)

	errCh := make(chan error, 1)
	go func() {
		if ln != nil {
			errCh <- srv.Serve(ln)
			return
		}
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		middleware.Logger.Info("shutting down server")
	case serveErr = <-errCh:
		if serveErr != nil {
			middleware.Logger.Error("server stopped", slog.String("error", serveErr.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	if err := rt.Close(); err != nil {
		middleware.Logger.Error("runtime close error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	return serveErr
}
