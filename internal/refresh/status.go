package refresh

import (
	"sync"
	"time"

	"github.com/mmynk/billvault/internal/models"
)

// Stage is where an entry's latest refresh stands.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageFetching   Stage = "fetching"
	StageExtracting Stage = "extracting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// EventKind is one step of a refresh.
type EventKind int

const (
	EventFetchStarted EventKind = iota
	EventExtractStarted
	EventSucceeded
	EventFailed
)

// Event drives Reduce. Err is set for EventFailed only.
type Event struct {
	Kind EventKind
	Err  error
	At   time.Time
}

// Status is the per-entry refresh record shown to the presentation layer.
type Status struct {
	EntryID   string    `json:"entryId"`
	Stage     Stage     `json:"stage"`
	ErrorKind string    `json:"errorKind,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Err is the failure behind ErrorKind, kept for errors.Is checks.
	Err error `json:"-"`
}

// InProgress reports whether a refresh is running for the entry.
func (s Status) InProgress() bool {
	return s.Stage == StageFetching || s.Stage == StageExtracting
}

// Reduce returns the status after ev. It has no side effects. A new refresh
// keeps the previous error visible until it completes; success clears it.
func Reduce(s Status, ev Event) Status {
	next := s
	next.UpdatedAt = ev.At

	switch ev.Kind {
	case EventFetchStarted:
		next.Stage = StageFetching
	case EventExtractStarted:
		next.Stage = StageExtracting
	case EventSucceeded:
		next.Stage = StageDone
		next.Err = nil
		next.ErrorKind = ""
		next.Error = ""
	case EventFailed:
		next.Stage = StageFailed
		next.Err = ev.Err
		next.ErrorKind = models.ErrorKind(ev.Err)
		next.Error = ""
		if ev.Err != nil {
			next.Error = ev.Err.Error()
		}
	}
	return next
}

// Board holds the status of every entry that has been refreshed since start
// and notifies subscribers of each transition.
type Board struct {
	mu          sync.RWMutex
	statuses    map[string]Status
	subscribers []func(Status)
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{statuses: make(map[string]Status)}
}

// Apply reduces ev into the entry's status and notifies subscribers.
func (b *Board) Apply(entryID string, ev Event) Status {
	b.mu.Lock()
	cur, ok := b.statuses[entryID]
	if !ok {
		cur = Status{EntryID: entryID, Stage: StageIdle}
	}
	next := Reduce(cur, ev)
	b.statuses[entryID] = next
	subs := append([]func(Status){}, b.subscribers...)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Get returns the entry's status, idle if it was never refreshed.
func (b *Board) Get(entryID string) Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.statuses[entryID]; ok {
		return s
	}
	return Status{EntryID: entryID, Stage: StageIdle}
}

// All returns a copy of every known status.
func (b *Board) All() map[string]Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Status, len(b.statuses))
	for k, v := range b.statuses {
		out[k] = v
	}
	return out
}

// Forget drops the status of a deleted entry.
func (b *Board) Forget(entryID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.statuses, entryID)
}

// Reset drops every status, after the store was replaced wholesale.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = make(map[string]Status)
}

// Subscribe registers fn to receive every status transition. fn runs on the
// goroutine that applied the event and must not block.
func (b *Board) Subscribe(fn func(Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// State combines an entry with its last refresh outcome.
func (b *Board) State(entry models.ServiceEntry) models.EntryState {
	s := b.Get(entry.ID)
	if s.Stage == StageFailed {
		return models.StateOf(entry, s.Err)
	}
	return models.StateOf(entry, nil)
}
