package persist

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billvault/internal/models"
)

// schedulePresets maps every preset string earlier releases stored for the
// refresh schedule. Strings not listed here fall back to disabledSchedule.
var schedulePresets = map[string]models.RefreshSchedule{
	"30m":     {Enabled: true, Value: 30, Unit: models.UnitMinutes},
	"1h":      {Enabled: true, Value: 1, Unit: models.UnitHours},
	"6h":      {Enabled: true, Value: 6, Unit: models.UnitHours},
	"12h":     {Enabled: true, Value: 12, Unit: models.UnitHours},
	"24h":     {Enabled: true, Value: 1, Unit: models.UnitDays},
	"1d":      {Enabled: true, Value: 1, Unit: models.UnitDays},
	"daily":   {Enabled: true, Value: 1, Unit: models.UnitDays},
	"7d":      {Enabled: true, Value: 1, Unit: models.UnitWeeks},
	"1w":      {Enabled: true, Value: 1, Unit: models.UnitWeeks},
	"weekly":  {Enabled: true, Value: 1, Unit: models.UnitWeeks},
	"30d":     {Enabled: true, Value: 1, Unit: models.UnitMonths},
	"1mo":     {Enabled: true, Value: 1, Unit: models.UnitMonths},
	"monthly": {Enabled: true, Value: 1, Unit: models.UnitMonths},
}

var disabledSchedule = models.RefreshSchedule{Enabled: false, Value: 1, Unit: models.UnitHours}

// SchedulePreset translates a legacy preset string. The mapping is total:
// "off", "never", "" and unknown strings all yield a disabled schedule.
func SchedulePreset(preset string) models.RefreshSchedule {
	if s, ok := schedulePresets[strings.ToLower(strings.TrimSpace(preset))]; ok {
		return s
	}
	return disabledSchedule
}

// settingsRecord accepts both the current and the legacy settings fields.
type settingsRecord struct {
	APIKey          string          `json:"apiKey"`
	RefreshSchedule json.RawMessage `json:"refreshSchedule"`
	RefreshInterval *string         `json:"refreshInterval"`
}

func decodeSettings(raw json.RawMessage) (models.AppSettings, bool, error) {
	var rec settingsRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.AppSettings{}, false, fmt.Errorf("failed to parse settings: %w", err)
	}

	settings := models.DefaultSettings()
	settings.APIKey = strings.TrimSpace(rec.APIKey)

	switch {
	case len(rec.RefreshSchedule) > 0 && rec.RefreshSchedule[0] == '"':
		var preset string
		if err := json.Unmarshal(rec.RefreshSchedule, &preset); err != nil {
			return models.AppSettings{}, false, fmt.Errorf("failed to parse schedule preset: %w", err)
		}
		settings.RefreshSchedule = SchedulePreset(preset)
		return settings, true, nil

	case len(rec.RefreshSchedule) > 0 && rec.RefreshSchedule[0] == '{':
		var schedule models.RefreshSchedule
		if err := json.Unmarshal(rec.RefreshSchedule, &schedule); err != nil {
			return models.AppSettings{}, false, fmt.Errorf("failed to parse schedule: %w", err)
		}
		settings.RefreshSchedule = schedule
		return settings, false, nil

	case rec.RefreshInterval != nil:
		settings.RefreshSchedule = SchedulePreset(*rec.RefreshInterval)
		return settings, true, nil
	}

	return settings, false, nil
}

type vaultRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Entries  []entryRecord   `json:"entries"`
}

// entryRecord accepts the legacy field names uksc, name and billData next to
// the current ones.
type entryRecord struct {
	ID          string      `json:"id"`
	ServiceID   string      `json:"serviceId"`
	UKSC        string      `json:"uksc"`
	Nickname    string      `json:"nickname"`
	Name        string      `json:"name"`
	Occupant    string      `json:"occupant"`
	Unit        string      `json:"unit"`
	Phone       string      `json:"phone"`
	OverrideURL string      `json:"overrideUrl"`
	Bill        *billRecord `json:"bill"`
	BillData    *billRecord `json:"billData"`
}

// billRecord accepts lastFetched as RFC 3339 text or epoch milliseconds.
type billRecord struct {
	ConsumerName  string          `json:"consumerName"`
	BillingPeriod string          `json:"billingPeriod"`
	DueDate       string          `json:"dueDate"`
	Amount        string          `json:"amount"`
	Units         string          `json:"units"`
	Status        string          `json:"status"`
	LastFetched   json.RawMessage `json:"lastFetched"`
}

func decodeVaults(raw json.RawMessage) ([]models.Vault, bool, error) {
	var records []vaultRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("failed to parse vaults: %w", err)
	}

	migrated := false
	vaults := make([]models.Vault, 0, len(records))
	for _, vr := range records {
		v := models.Vault{
			ID:       vr.ID,
			Name:     vr.Name,
			Category: vr.Category,
			Entries:  make([]models.ServiceEntry, 0, len(vr.Entries)),
		}
		if v.ID == "" {
			v.ID = uuid.New().String()
			migrated = true
		}
		if !v.Category.Valid() {
			v.Category = models.CategorySingleUnit
			migrated = true
		}
		for _, er := range vr.Entries {
			e, m := er.toModel()
			migrated = migrated || m
			v.Entries = append(v.Entries, e)
		}
		vaults = append(vaults, v)
	}
	return vaults, migrated, nil
}

func (r entryRecord) toModel() (models.ServiceEntry, bool) {
	migrated := false
	e := models.ServiceEntry{
		ID:          r.ID,
		ServiceID:   r.ServiceID,
		Nickname:    r.Nickname,
		Occupant:    r.Occupant,
		Unit:        r.Unit,
		Phone:       r.Phone,
		OverrideURL: r.OverrideURL,
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
		migrated = true
	}
	if e.ServiceID == "" && r.UKSC != "" {
		e.ServiceID = r.UKSC
		migrated = true
	}
	if e.Nickname == "" {
		if r.Name != "" {
			e.Nickname = r.Name
		} else {
			e.Nickname = models.DefaultNickname(e.ServiceID)
		}
		migrated = true
	}

	bill := r.Bill
	if bill == nil && r.BillData != nil {
		bill = r.BillData
		migrated = true
	}
	if bill != nil {
		snap := bill.toModel()
		e.Bill = &snap
	}
	return e, migrated
}

func (r billRecord) toModel() models.BillSnapshot {
	return models.BillSnapshot{
		ConsumerName:  r.ConsumerName,
		BillingPeriod: r.BillingPeriod,
		DueDate:       r.DueDate,
		Amount:        r.Amount,
		Units:         r.Units,
		Status:        r.Status,
		LastFetched:   parseTimestamp(r.LastFetched),
	}
}

// parseTimestamp returns the zero time for anything it cannot read.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
