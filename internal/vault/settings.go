package vault

import (
	"context"
	"strings"

	"github.com/mmynk/billvault/internal/models"
)

// Settings returns the current settings record.
func (s *Store) Settings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings validates and persists settings, then notifies observers.
// A disabled schedule is stored as given even if it would not validate.
func (s *Store) UpdateSettings(ctx context.Context, settings models.AppSettings) error {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	if settings.RefreshSchedule.Enabled {
		if err := settings.RefreshSchedule.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if err := s.saveLocked(ctx, s.cloneLocked(), settings); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = settings
	observers := append([]func(models.AppSettings){}, s.settingsObservers...)
	s.mu.Unlock()

	s.log.Info("settings updated",
		"credential_set", settings.APIKey != "",
		"schedule_enabled", settings.RefreshSchedule.Enabled,
		"schedule_value", settings.RefreshSchedule.Value,
		"schedule_unit", settings.RefreshSchedule.Unit,
	)

	for _, fn := range observers {
		fn(settings)
	}
	return nil
}

// OnSettingsChange registers fn to run after every successful settings
// update or import.
func (s *Store) OnSettingsChange(fn func(models.AppSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsObservers = append(s.settingsObservers, fn)
}
