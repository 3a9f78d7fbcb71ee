// Package refresh runs the bill refresh pipeline for one entry: resolve the
// portal URL, fetch the page, extract the bill and store it.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/billvault/internal/metrics"
	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/vault"
)

// EntrySource is the part of the vault store a refresh needs.
type EntrySource interface {
	Entry(id string) (vault.EntryRef, error)
	SetSnapshot(ctx context.Context, entryID string, snap models.BillSnapshot) error
	Settings() models.AppSettings
}

// PageFetcher downloads a portal page.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// BillExtractor turns a page into a snapshot.
type BillExtractor interface {
	Extract(ctx context.Context, apiKey, html, serviceID string) (models.BillSnapshot, error)
}

// Orchestrator refreshes entries. Refreshes of different entries may run
// concurrently; each writes only its own snapshot.
type Orchestrator struct {
	entries    EntrySource
	fetcher    PageFetcher
	extractor  BillExtractor
	board      *Board
	defaultURL string
	now        func() time.Time
	log        *slog.Logger
}

// New creates an Orchestrator. defaultURL is the portal template used for
// entries without an override.
func New(entries EntrySource, fetcher PageFetcher, extractor BillExtractor, board *Board, defaultURL string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		entries:    entries,
		fetcher:    fetcher,
		extractor:  extractor,
		board:      board,
		defaultURL: defaultURL,
		now:        time.Now,
		log:        logger.With("component", "refresh"),
	}
}

// Board returns the status board the orchestrator reports to.
func (o *Orchestrator) Board() *Board {
	return o.board
}

// PortalURL resolves the portal URL of an entry.
func (o *Orchestrator) PortalURL(entry models.ServiceEntry) string {
	return ResolveURL(entry, o.defaultURL)
}

// Refresh fetches and extracts the bill of one entry. On failure the status
// board records the error and the stored snapshot is left as it was; on
// success the snapshot is replaced and the error cleared.
func (o *Orchestrator) Refresh(ctx context.Context, entryID string) error {
	ref, err := o.entries.Entry(entryID)
	if err != nil {
		return err
	}
	entry := ref.Entry

	start := o.now()
	o.board.Apply(entryID, Event{Kind: EventFetchStarted, At: start})

	snap, err := o.run(ctx, entry)
	if err == nil {
		err = o.entries.SetSnapshot(ctx, entryID, snap)
	}

	metrics.RefreshDuration.Observe(o.now().Sub(start).Seconds())
	if err != nil {
		metrics.Refreshes.WithLabelValues(models.ErrorKind(err)).Inc()
		o.board.Apply(entryID, Event{Kind: EventFailed, Err: err, At: o.now()})
		o.logFailure(ctx, entry, err)
		return err
	}

	metrics.Refreshes.WithLabelValues("ok").Inc()
	o.board.Apply(entryID, Event{Kind: EventSucceeded, At: o.now()})
	o.log.InfoContext(ctx, "bill refreshed",
		"entry_id", entryID,
		"service_id", entry.ServiceID,
		"status", snap.Status,
		"duration_ms", o.now().Sub(start).Milliseconds(),
	)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, entry models.ServiceEntry) (models.BillSnapshot, error) {
	apiKey := strings.TrimSpace(o.entries.Settings().APIKey)
	if apiKey == "" {
		return models.BillSnapshot{}, fmt.Errorf("refresh %s: %w", entry.ServiceID, models.ErrMissingCredential)
	}

	html, err := o.fetcher.Fetch(ctx, o.PortalURL(entry))
	if err != nil {
		return models.BillSnapshot{}, err
	}

	o.board.Apply(entry.ID, Event{Kind: EventExtractStarted, At: o.now()})

	return o.extractor.Extract(ctx, apiKey, html, entry.ServiceID)
}

func (o *Orchestrator) logFailure(ctx context.Context, entry models.ServiceEntry, err error) {
	attrs := []any{"entry_id", entry.ID, "service_id", entry.ServiceID, "kind", models.ErrorKind(err), "error", err}
	switch {
	case errors.Is(err, models.ErrPortalUnreachable), errors.Is(err, models.ErrExtractionFailed), errors.Is(err, models.ErrMissingCredential):
		o.log.WarnContext(ctx, "refresh failed", attrs...)
	default:
		o.log.ErrorContext(ctx, "refresh failed", attrs...)
	}
}

// RefreshMany starts one background refresh per entry and returns at once.
// The refreshes outlive ctx's cancellation but keep its values.
func (o *Orchestrator) RefreshMany(ctx context.Context, entryIDs []string) {
	bg := context.WithoutCancel(ctx)
	for _, id := range entryIDs {
		go func() {
			_ = o.Refresh(bg, id)
		}()
	}
}
