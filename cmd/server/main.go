package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/billvault/internal/app"
	"github.com/mmynk/billvault/internal/config"
	"github.com/mmynk/billvault/internal/middleware"
	"github.com/mmynk/billvault/internal/service"
	"github.com/mmynk/billvault/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	a.Store.OnSettingsChange(a.Loop.Apply)
	logger.Info("Storage initialized", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	svc := service.NewVaultService(a.Store, a.Orchestrator, a.Loop, cfg.Share.CountryCode, logger)
	hub := service.NewStatusHub(a.Orchestrator.Board(), logger)

	mux := http.NewServeMux()

	// Register Connect services
	service.RegisterVaultService(mux, svc,
		connect.WithInterceptors(middleware.LoggingInterceptor(logger)),
	)
	service.NewFiles(svc, a.Sink, logger).Register(mux)
	mux.Handle("GET /ws/status", hub)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Add logging and CORS middleware
	handler := middleware.Logging(logger, middleware.CORS(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Loop.Run(gctx, a.Store.Settings())
	})

	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
