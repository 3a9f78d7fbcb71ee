// Package app assembles the vault store, the refresh pipeline and the backup
// sink from configuration. The server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/billvault/internal/backup"
	"github.com/mmynk/billvault/internal/config"
	"github.com/mmynk/billvault/internal/extractor"
	"github.com/mmynk/billvault/internal/fetcher"
	"github.com/mmynk/billvault/internal/refresh"
	"github.com/mmynk/billvault/internal/schedule"
	"github.com/mmynk/billvault/internal/storage"
	"github.com/mmynk/billvault/internal/storage/file"
	"github.com/mmynk/billvault/internal/storage/memory"
	"github.com/mmynk/billvault/internal/storage/sqlite"
	"github.com/mmynk/billvault/internal/vault"
)

// App holds the wired components.
type App struct {
	Config       *config.Config
	Backend      storage.Store
	Store        *vault.Store
	Orchestrator *refresh.Orchestrator
	Loop         *schedule.Loop
	Sink         backup.Sink
}

// Options overrides parts of the pipeline, mostly for tests.
type Options struct {
	Fetcher   refresh.PageFetcher
	Extractor refresh.BillExtractor
}

// OpenBackend opens the storage driver named in cfg.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.New(ctx, cfg.Path)
	case "file":
		return file.New(cfg.Path)
	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// OpenSink opens the configured backup sink: S3 when a bucket is set,
// otherwise a local directory.
func OpenSink(ctx context.Context, cfg config.BackupConfig) (backup.Sink, error) {
	if cfg.S3Enabled() {
		return backup.NewS3Sink(ctx, backup.S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return backup.NewFileSink(cfg.Dir)
}

// New wires every component. The returned App owns the storage backend;
// call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	backend, err := OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	sink, err := OpenSink(ctx, cfg.Backup)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to open backup sink: %w", err)
	}

	store := vault.Open(ctx, backend, logger)

	pageFetcher := opts.Fetcher
	if pageFetcher == nil {
		proxies := fetcher.ParseProxies(cfg.Portal.Proxies)
		if len(proxies) == 0 {
			proxies = fetcher.DefaultProxies
		}
		pageFetcher = fetcher.NewWithProxies(proxies, logger,
			fetcher.WithMinLength(cfg.Portal.MinBodyLength),
			fetcher.WithHTTPClient(&http.Client{Timeout: cfg.Portal.Timeout}),
		)
	}

	billExtractor := opts.Extractor
	if billExtractor == nil {
		billExtractor = extractor.New(
			extractor.AnthropicFactory(cfg.Extraction.Model, cfg.Extraction.MaxTokens),
			cfg.Extraction.MaxInputChars,
			logger,
		)
	}

	orch := refresh.New(store, pageFetcher, billExtractor, refresh.NewBoard(), cfg.Portal.DefaultURL, logger)
	loop := schedule.New(store, orch, cfg.Schedule.Pause, logger)

	return &App{
		Config:       cfg,
		Backend:      backend,
		Store:        store,
		Orchestrator: orch,
		Loop:         loop,
		Sink:         sink,
	}, nil
}

// Close stops the schedule and releases the storage backend.
func (a *App) Close() error {
	a.Loop.Stop()
	return a.Backend.Close()
}
