package models

import "fmt"

// Category classifies a vault by the kind of property it describes.
type Category string

const (
	CategorySingleUnit Category = "residential-single-unit"
	CategoryMultiUnit  Category = "residential-multi-unit"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategorySingleUnit || c == CategoryMultiUnit
}

// ParseCategory maps user input to a Category. An empty string selects the
// single-unit default.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "single", string(CategorySingleUnit):
		return CategorySingleUnit, nil
	case "multi", string(CategoryMultiUnit):
		return CategoryMultiUnit, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// Vault is a user-defined property holding an ordered list of service entries.
// Deleting a vault deletes its entries.
type Vault struct {
	// ID is the unique identifier for the vault (UUID format).
	ID string `json:"id"`

	// Name is the display name of the property.
	Name string `json:"name"`

	// Category is either single-unit or multi-unit residential.
	Category Category `json:"category"`

	// Entries are kept in insertion order.
	Entries []ServiceEntry `json:"entries"`
}

// ServiceEntry is one tracked utility service.
type ServiceEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// ServiceID is the UKSC number. Unique across all vaults.
	ServiceID string `json:"serviceId"`

	// Nickname defaults to "Meter " plus the last four characters of ServiceID.
	Nickname string `json:"nickname"`

	Occupant string `json:"occupant,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Phone    string `json:"phone,omitempty"`

	// OverrideURL replaces the default portal URL. The token {UKSC} is
	// substituted with ServiceID.
	OverrideURL string `json:"overrideUrl,omitempty"`

	// Bill is the latest snapshot, nil until the first successful refresh.
	Bill *BillSnapshot `json:"bill,omitempty"`
}

// DefaultNickname derives the nickname given to entries created in bulk.
func DefaultNickname(serviceID string) string {
	r := []rune(serviceID)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "Meter " + string(r)
}

// Clone returns a deep copy of the vault.
func (v Vault) Clone() Vault {
	out := v
	out.Entries = make([]ServiceEntry, len(v.Entries))
	for i, e := range v.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e ServiceEntry) Clone() ServiceEntry {
	out := e
	if e.Bill != nil {
		b := *e.Bill
		out.Bill = &b
	}
	return out
}
