// Package vault holds the in-memory vault collection and settings and
// persists the whole document on every mutation.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/billvault/internal/models"
	"github.com/mmynk/billvault/internal/persist"
	"github.com/mmynk/billvault/internal/storage"
)

// Store owns every vault, entry and the settings record. Mutations build the
// next state, persist it, and only then make it visible; a failed save leaves
// the store unchanged.
type Store struct {
	mu       sync.RWMutex
	backend  storage.Store
	log      *slog.Logger
	vaults   []models.Vault
	settings models.AppSettings
	selected string

	settingsObservers []func(models.AppSettings)
}

// Open loads the persisted document. A missing document starts an empty
// store; an unreadable one is logged and also starts empty, so Open never
// fails.
func Open(ctx context.Context, backend storage.Store, logger *slog.Logger) *Store {
	s := &Store{
		backend:  backend,
		log:      logger.With("component", "vault"),
		vaults:   []models.Vault{},
		settings: models.DefaultSettings(),
	}

	data, err := backend.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.log.Info("no saved state, starting empty")
		return s
	case err != nil:
		s.log.Warn("failed to load saved state, starting empty", "error", fmt.Errorf("%w: %w", models.ErrStorageParse, err))
		return s
	}

	doc, err := persist.Decode(data)
	if err != nil {
		s.log.Warn("failed to parse saved state, starting empty", "error", fmt.Errorf("%w: %w", models.ErrStorageParse, err))
		return s
	}

	s.vaults = doc.Vaults
	s.settings = doc.Settings
	if len(s.vaults) > 0 {
		s.selected = s.vaults[0].ID
	}

	if doc.Migrated {
		s.log.Info("migrated saved state to current format", "version", persist.CurrentVersion)
		if err := s.saveLocked(ctx, s.vaults, s.settings); err != nil {
			s.log.Warn("failed to write migrated state", "error", err)
		}
	}

	s.log.Info("state loaded", "vaults", len(s.vaults))
	return s
}

// saveLocked encodes and writes the given state. Callers hold s.mu.
func (s *Store) saveLocked(ctx context.Context, vaults []models.Vault, settings models.AppSettings) error {
	data, err := persist.Encode(persist.Document{Vaults: vaults, Settings: settings})
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// commitLocked persists vaults and, on success, installs them.
func (s *Store) commitLocked(ctx context.Context, vaults []models.Vault) error {
	if err := s.saveLocked(ctx, vaults, s.settings); err != nil {
		return err
	}
	s.vaults = vaults
	return nil
}

func (s *Store) cloneLocked() []models.Vault {
	out := make([]models.Vault, len(s.vaults))
	for i, v := range s.vaults {
		out[i] = v.Clone()
	}
	return out
}

func (s *Store) vaultIndexLocked(id string) int {
	for i, v := range s.vaults {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// Vaults returns a copy of every vault in order.
func (s *Store) Vaults() []models.Vault {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// Vault returns a copy of one vault.
func (s *Store) Vault(id string) (models.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.vaultIndexLocked(id)
	if i < 0 {
		return models.Vault{}, fmt.Errorf("vault %s: %w", id, models.ErrNotFound)
	}
	return s.vaults[i].Clone(), nil
}

// Selected returns the active vault, or false when there is none.
func (s *Store) Selected() (models.Vault, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.vaultIndexLocked(s.selected)
	if i < 0 {
		return models.Vault{}, false
	}
	return s.vaults[i].Clone(), true
}

// SelectVault makes id the active vault.
func (s *Store) SelectVault(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vaultIndexLocked(id) < 0 {
		return fmt.Errorf("vault %s: %w", id, models.ErrNotFound)
	}
	s.selected = id
	return nil
}

// CreateVault appends an empty vault and selects it.
func (s *Store) CreateVault(ctx context.Context, name string, category models.Category) (models.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Vault{}, fmt.Errorf("%w: vault name is required", models.ErrValidation)
	}
	if !category.Valid() {
		return models.Vault{}, fmt.Errorf("%w: unknown category %q", models.ErrValidation, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.Vault{
		ID:       uuid.New().String(),
		Name:     name,
		Category: category,
		Entries:  []models.ServiceEntry{},
	}
	next := append(s.cloneLocked(), v)
	if err := s.commitLocked(ctx, next); err != nil {
		return models.Vault{}, err
	}
	s.selected = v.ID

	s.log.Info("vault created", "vault_id", v.ID, "name", v.Name)
	return v.Clone(), nil
}

// DeleteVault removes a vault and its entries. If it was active, the first
// remaining vault becomes active, or none.
func (s *Store) DeleteVault(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.vaultIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("vault %s: %w", id, models.ErrNotFound)
	}

	next := s.cloneLocked()
	removed := len(next[i].Entries)
	next = append(next[:i], next[i+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return err
	}

	if s.selected == id {
		s.selected = ""
		if len(s.vaults) > 0 {
			s.selected = s.vaults[0].ID
		}
	}

	s.log.Info("vault deleted", "vault_id", id, "entries_removed", removed)
	return nil
}
