package models

import (
	"fmt"
	"time"
)

// TimeUnit is the unit of a refresh schedule interval.
type TimeUnit string

const (
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
	UnitDays    TimeUnit = "days"
	UnitWeeks   TimeUnit = "weeks"
	UnitMonths  TimeUnit = "months"
	UnitYears   TimeUnit = "years"
)

// Duration returns the length of one unit. Months are 30 days and years are
// 365 days. Unknown units return 0.
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case UnitMinutes:
		return time.Minute
	case UnitHours:
		return time.Hour
	case UnitDays:
		return 24 * time.Hour
	case UnitWeeks:
		return 7 * 24 * time.Hour
	case UnitMonths:
		return 30 * 24 * time.Hour
	case UnitYears:
		return 365 * 24 * time.Hour
	}
	return 0
}

// RefreshSchedule configures the scheduled refresh loop.
type RefreshSchedule struct {
	Enabled bool     `json:"enabled"`
	Value   int      `json:"value"`
	Unit    TimeUnit `json:"unit"`
}

// MaxScheduleInterval is the longest refresh interval a schedule may ask for.
const MaxScheduleInterval = 10 * 365 * 24 * time.Hour

// Interval returns Value times the unit length, or 0 if either is not positive.
// Longer intervals are clamped to MaxScheduleInterval.
func (s RefreshSchedule) Interval() time.Duration {
	unit := s.Unit.Duration()
	if s.Value <= 0 || unit == 0 {
		return 0
	}
	if int64(s.Value) > int64(MaxScheduleInterval/unit) {
		return MaxScheduleInterval
	}
	return time.Duration(s.Value) * unit
}

// Validate rejects schedules that could never arm.
func (s RefreshSchedule) Validate() error {
	if s.Unit.Duration() == 0 {
		return fmt.Errorf("%w: unknown schedule unit %q", ErrValidation, s.Unit)
	}
	if s.Value <= 0 {
		return fmt.Errorf("%w: schedule value must be positive (got %d)", ErrValidation, s.Value)
	}
	if int64(s.Value) > int64(MaxScheduleInterval/s.Unit.Duration()) {
		return fmt.Errorf("%w: schedule of %d %s exceeds %d years", ErrValidation, s.Value, s.Unit, MaxScheduleInterval/UnitYears.Duration())
	}
	return nil
}

// AppSettings is the singleton settings record persisted next to the vaults.
type AppSettings struct {
	// APIKey is the extraction credential. Empty means refreshes fail with
	// ErrMissingCredential.
	APIKey string `json:"apiKey,omitempty"`

	RefreshSchedule RefreshSchedule `json:"refreshSchedule"`
}

// DefaultSettings returns the settings used on first start: no credential and
// a disabled daily schedule.
func DefaultSettings() AppSettings {
	return AppSettings{
		RefreshSchedule: RefreshSchedule{Enabled: false, Value: 1, Unit: UnitDays},
	}
}
