package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/billvault/internal/app"
	"github.com/mmynk/billvault/internal/cli"
	"github.com/mmynk/billvault/internal/config"
	"github.com/mmynk/billvault/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.Env{
		Open: open,
		In:   os.Stdin,
		Out:  os.Stdout,
		Err:  os.Stderr,
	}
	if err := cli.Run(ctx, env, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func open(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Info logs would drown command output; only debug is let through.
	level := logging.ParseLevel(cfg.Log.Level)
	if level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	logger := logging.New(os.Stderr, level, cfg.Log.Format)
	slog.SetDefault(logger)

	return app.New(ctx, cfg, logger, app.Options{})
}
