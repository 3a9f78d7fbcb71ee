package models

// EntryState is the exhaustive view of what is known about an entry's bill:
// exactly one of NoSnapshotYet, Snapshot or LastAttemptFailed.
type EntryState interface {
	entryState()
}

// NoSnapshotYet means the entry was never refreshed successfully and the last
// attempt, if any, did not fail.
type NoSnapshotYet struct{}

// Snapshot holds the current bill.
type Snapshot struct {
	Bill BillSnapshot
}

// LastAttemptFailed records the most recent failure. Previous is the snapshot
// that survived the failure, nil if there was none.
type LastAttemptFailed struct {
	Err      error
	Previous *BillSnapshot
}

func (NoSnapshotYet) entryState()     {}
func (Snapshot) entryState()          {}
func (LastAttemptFailed) entryState() {}

// StateOf combines an entry with the error of its last refresh attempt.
// lastErr is nil when the last attempt succeeded or none was made.
func StateOf(e ServiceEntry, lastErr error) EntryState {
	if lastErr != nil {
		var prev *BillSnapshot
		if e.Bill != nil {
			b := *e.Bill
			prev = &b
		}
		return LastAttemptFailed{Err: lastErr, Previous: prev}
	}
	if e.Bill == nil {
		return NoSnapshotYet{}
	}
	return Snapshot{Bill: *e.Bill}
}
