// Package schedule runs periodic sweeps that refresh every entry in turn.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmynk/billvault/internal/metrics"
	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/vault"
)

// DefaultPause spaces the refreshes of one sweep.
const DefaultPause = 3 * time.Second

// State is idle when no schedule runs and armed while a ticker is live.
type State string

const (
	StateIdle  State = "idle"
	StateArmed State = "armed"
)

// Refresher refreshes one entry.
type Refresher interface {
	Refresh(ctx context.Context, entryID string) error
}

// EntryLister lists the entries a sweep visits, in order.
type EntryLister interface {
	AllEntries() []vault.EntryRef
}

// Loop arms a ticker from the refresh schedule in settings. Each tick starts
// a sweep unless the previous sweep is still running, in which case the tick
// is skipped.
type Loop struct {
	entries   EntryLister
	refresher Refresher
	pause     time.Duration
	log       *slog.Logger

	intervalFor func(models.RefreshSchedule) time.Duration

	mu       sync.Mutex
	parent   context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration

	sweeping atomic.Bool
}

// New creates an idle loop. pause <= 0 selects DefaultPause.
func New(entries EntryLister, refresher Refresher, pause time.Duration, logger *slog.Logger) *Loop {
	if pause <= 0 {
		pause = DefaultPause
	}
	return &Loop{
		entries:     entries,
		refresher:   refresher,
		pause:       pause,
		log:         logger.With("component", "schedule"),
		intervalFor: models.RefreshSchedule.Interval,
		parent:      context.Background(),
	}
}

// Run applies the initial settings and blocks until ctx is done, then
// disarms. Later Apply calls re-arm under ctx.
func (l *Loop) Run(ctx context.Context, initial models.AppSettings) error {
	l.mu.Lock()
	l.parent = ctx
	l.mu.Unlock()

	l.Apply(initial)
	<-ctx.Done()
	l.Stop()
	return nil
}

// Apply arms the loop for an enabled schedule with a positive interval and
// disarms it otherwise. Re-applying the same interval keeps the running
// ticker.
func (l *Loop) Apply(settings models.AppSettings) {
	interval := time.Duration(0)
	if settings.RefreshSchedule.Enabled {
		interval = l.intervalFor(settings.RefreshSchedule)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if interval > 0 && l.cancel != nil && interval == l.interval {
		return
	}
	l.stopLocked()
	if interval <= 0 {
		l.log.Info("schedule idle")
		return
	}

	ctx, cancel := context.WithCancel(l.parent)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.interval = interval
	go l.run(ctx, interval, l.done)

	l.log.Info("schedule armed", "interval", interval.String())
}

// Stop disarms the loop. A sweep in progress is canceled.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Loop) stopLocked() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
	l.interval = 0
}

// State reports whether a ticker is running.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return StateArmed
	}
	return StateIdle
}

func (l *Loop) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.tick(ctx)
			}()
		}
	}
}

// tick runs one sweep, or skips it if one is already running.
func (l *Loop) tick(ctx context.Context) bool {
	if !l.sweeping.CompareAndSwap(false, true) {
		metrics.Sweeps.WithLabelValues("skipped").Inc()
		l.log.Warn("previous sweep still running, skipping tick")
		return false
	}
	defer l.sweeping.Store(false)

	l.Sweep(ctx)
	metrics.Sweeps.WithLabelValues("completed").Inc()
	return true
}

// RunNow runs one sweep immediately unless one is already running. It
// reports whether a sweep ran.
func (l *Loop) RunNow(ctx context.Context) bool {
	return l.tick(ctx)
}

// Start begins a sweep in the background unless one is already running, and
// reports whether it did. The sweep outlives ctx's cancellation.
func (l *Loop) Start(ctx context.Context) bool {
	if !l.sweeping.CompareAndSwap(false, true) {
		metrics.Sweeps.WithLabelValues("skipped").Inc()
		return false
	}
	go func() {
		defer l.sweeping.Store(false)
		l.Sweep(context.WithoutCancel(ctx))
		metrics.Sweeps.WithLabelValues("completed").Inc()
	}()
	return true
}

// Sweep refreshes every entry sequentially and waits one pause after each
// refresh before starting the next. A failed refresh is logged and the sweep
// moves on.
func (l *Loop) Sweep(ctx context.Context) {
	refs := l.entries.AllEntries()
	l.log.Info("sweep started", "entries", len(refs))

	pause := time.NewTimer(l.pause)
	defer pause.Stop()

	failed := 0
	for i, ref := range refs {
		if i > 0 {
			pause.Reset(l.pause)
			select {
			case <-ctx.Done():
				l.log.Info("sweep canceled", "error", ctx.Err())
				return
			case <-pause.C:
			}
		} else if ctx.Err() != nil {
			l.log.Info("sweep canceled", "error", ctx.Err())
			return
		}
		if err := l.refresher.Refresh(ctx, ref.Entry.ID); err != nil {
			failed++
		}
	}

	l.log.Info("sweep finished", "entries", len(refs), "failed", failed)
}
