package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/billvault/internal/models"
)

// EntryRef is an entry together with the vault that owns it.
type EntryRef struct {
	VaultID   string
	VaultName string
	Entry     models.ServiceEntry
}

// AddResult reports the outcome of a bulk add. Entries are created even when
// some candidates are duplicates.
type AddResult struct {
	Created    []models.ServiceEntry
	Duplicates []string
}

// Err returns a *models.DuplicateIdentifierError listing every duplicate, or
// nil when there were none.
func (r AddResult) Err() error {
	if len(r.Duplicates) == 0 {
		return nil
	}
	return &models.DuplicateIdentifierError{Identifiers: r.Duplicates}
}

// ParseIdentifiers splits a pasted block on newlines and commas, trims each
// candidate and drops empties. Repeats within the block are collapsed to
// their first occurrence.
func ParseIdentifiers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		id := strings.TrimSpace(f)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// serviceIDsLocked indexes every service identifier to the id of the entry
// holding it.
func (s *Store) serviceIDsLocked() map[string]string {
	ids := make(map[string]string)
	for _, v := range s.vaults {
		for _, e := range v.Entries {
			ids[e.ServiceID] = e.ID
		}
	}
	return ids
}

func (s *Store) findEntryLocked(id string) (vi, ei int) {
	for i, v := range s.vaults {
		for j, e := range v.Entries {
			if e.ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// AddEntries creates one entry per identifier in raw. Identifiers already
// tracked anywhere in the store are skipped and returned in
// AddResult.Duplicates.
func (s *Store) AddEntries(ctx context.Context, vaultID, raw string) (AddResult, error) {
	candidates := ParseIdentifiers(raw)
	if len(candidates) == 0 {
		return AddResult{}, fmt.Errorf("%w: no service identifiers given", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vi := s.vaultIndexLocked(vaultID)
	if vi < 0 {
		return AddResult{}, fmt.Errorf("vault %s: %w", vaultID, models.ErrNotFound)
	}

	existing := s.serviceIDsLocked()
	var result AddResult
	for _, id := range candidates {
		if _, taken := existing[id]; taken {
			result.Duplicates = append(result.Duplicates, id)
			continue
		}
		result.Created = append(result.Created, models.ServiceEntry{
			ID:        uuid.New().String(),
			ServiceID: id,
			Nickname:  models.DefaultNickname(id),
		})
	}

	if len(result.Created) > 0 {
		next := s.cloneLocked()
		next[vi].Entries = append(next[vi].Entries, result.Created...)
		if err := s.commitLocked(ctx, next); err != nil {
			return AddResult{}, err
		}
	}

	s.log.Info("entries added",
		"vault_id", vaultID,
		"created", len(result.Created),
		"duplicates", len(result.Duplicates),
	)
	return result, nil
}

// UpdateEntry replaces the editable fields of an entry. The bill snapshot is
// kept regardless of what updated carries.
func (s *Store) UpdateEntry(ctx context.Context, updated models.ServiceEntry) (models.ServiceEntry, error) {
	updated.ServiceID = strings.TrimSpace(updated.ServiceID)
	if updated.ServiceID == "" {
		return models.ServiceEntry{}, fmt.Errorf("%w: service identifier is required", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vi, ei := s.findEntryLocked(updated.ID)
	if vi < 0 {
		return models.ServiceEntry{}, fmt.Errorf("entry %s: %w", updated.ID, models.ErrNotFound)
	}

	if owner, taken := s.serviceIDsLocked()[updated.ServiceID]; taken && owner != updated.ID {
		return models.ServiceEntry{}, &models.DuplicateIdentifierError{Identifiers: []string{updated.ServiceID}}
	}

	next := s.cloneLocked()
	current := next[vi].Entries[ei]
	updated.Bill = current.Bill
	updated.Nickname = strings.TrimSpace(updated.Nickname)
	if updated.Nickname == "" {
		updated.Nickname = models.DefaultNickname(updated.ServiceID)
	}
	next[vi].Entries[ei] = updated

	if err := s.commitLocked(ctx, next); err != nil {
		return models.ServiceEntry{}, err
	}

	s.log.Info("entry updated", "entry_id", updated.ID, "service_id", updated.ServiceID)
	return updated.Clone(), nil
}

// DeleteEntry removes an entry from its vault.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vi, ei := s.findEntryLocked(id)
	if vi < 0 {
		return fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}

	next := s.cloneLocked()
	entries := next[vi].Entries
	next[vi].Entries = append(entries[:ei], entries[ei+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}

	s.log.Info("entry deleted", "entry_id", id, "vault_id", next[vi].ID)
	return nil
}

// Entry returns a copy of an entry and its owning vault.
func (s *Store) Entry(id string) (EntryRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vi, ei := s.findEntryLocked(id)
	if vi < 0 {
		return EntryRef{}, fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}
	v := s.vaults[vi]
	return EntryRef{VaultID: v.ID, VaultName: v.Name, Entry: v.Entries[ei].Clone()}, nil
}

// AllEntries lists every entry of every vault in display order.
func (s *Store) AllEntries() []EntryRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []EntryRef
	for _, v := range s.vaults {
		for _, e := range v.Entries {
			refs = append(refs, EntryRef{VaultID: v.ID, VaultName: v.Name, Entry: e.Clone()})
		}
	}
	return refs
}

// SetSnapshot replaces the bill snapshot of one entry.
func (s *Store) SetSnapshot(ctx context.Context, entryID string, snap models.BillSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vi, ei := s.findEntryLocked(entryID)
	if vi < 0 {
		return fmt.Errorf("entry %s: %w", entryID, models.ErrNotFound)
	}

	next := s.cloneLocked()
	next[vi].Entries[ei].Bill = &snap
	return s.commitLocked(ctx, next)
}
