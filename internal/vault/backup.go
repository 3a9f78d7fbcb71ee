package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/persist"
)

// Export returns the full state in the persisted document format.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return persist.Encode(persist.Document{Vaults: s.vaults, Settings: s.settings})
}

// ValidateBackup checks that data is a JSON array or an object carrying
// vaults or settings, and that it decodes into a consistent store. It
// returns the decoded document.
func ValidateBackup(data []byte) (persist.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return persist.Document{}, fmt.Errorf("%w: not valid JSON", models.ErrInvalidBackupFile)
	}

	doc, err := persist.Decode(trimmed)
	if err != nil {
		return persist.Document{}, fmt.Errorf("%w: %w", models.ErrInvalidBackupFile, err)
	}

	seen := make(map[string]struct{})
	var dups []string
	for _, v := range doc.Vaults {
		for _, e := range v.Entries {
			if _, ok := seen[e.ServiceID]; ok {
				dups = append(dups, e.ServiceID)
				continue
			}
			seen[e.ServiceID] = struct{}{}
		}
	}
	if len(dups) > 0 {
		return persist.Document{}, fmt.Errorf("%w: %w", models.ErrInvalidBackupFile, &models.DuplicateIdentifierError{Identifiers: dups})
	}
	return doc, nil
}

// Import replaces the whole store with the contents of a backup. Invalid
// payloads leave the store untouched.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := ValidateBackup(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.saveLocked(ctx, doc.Vaults, doc.Settings); err != nil {
		s.mu.Unlock()
		return err
	}
	s.vaults = doc.Vaults
	s.settings = doc.Settings
	s.selected = ""
	if len(s.vaults) > 0 {
		s.selected = s.vaults[0].ID
	}
	observers := append([]func(models.AppSettings){}, s.settingsObservers...)
	s.mu.Unlock()

	s.log.Info("backup imported", "vaults", len(doc.Vaults))
	for _, fn := range observers {
		fn(doc.Settings)
	}
	return nil
}
