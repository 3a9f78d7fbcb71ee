// Package persist encodes the application state document and reads every
// shape earlier releases have written.
//
// The current shape is
//
//	{"version": 2, "vaults": [...], "settings": {...}}
//
// Older documents are either a bare array of vaults, or an envelope whose
// refresh schedule is a preset string ("12h", "1d", ...) instead of a
// value/unit pair. Decode migrates both without user involvement.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/billvault/internal/models"
)

// CurrentVersion is written into every encoded document.
const CurrentVersion = 2

// ErrUnrecognized means the payload is valid JSON of an unknown shape.
var ErrUnrecognized = errors.New("unrecognized document shape")

// Document is the full persisted state.
type Document struct {
	Version  int                `json:"version"`
	Vaults   []models.Vault     `json:"vaults"`
	Settings models.AppSettings `json:"settings"`

	// Migrated is set by Decode when the input used a legacy shape.
	Migrated bool `json:"-"`
}

// Empty returns the state of a first start.
func Empty() Document {
	return Document{
		Version:  CurrentVersion,
		Vaults:   []models.Vault{},
		Settings: models.DefaultSettings(),
	}
}

// Encode serializes doc in the current shape.
func Encode(doc Document) ([]byte, error) {
	doc.Version = CurrentVersion
	if doc.Vaults == nil {
		doc.Vaults = []models.Vault{}
	}
	for i := range doc.Vaults {
		if doc.Vaults[i].Entries == nil {
			doc.Vaults[i].Entries = []models.ServiceEntry{}
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Decode parses any recognized document shape into the current one.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, fmt.Errorf("%w: empty payload", ErrUnrecognized)
	}

	switch trimmed[0] {
	case '[':
		vaults, _, err := decodeVaults(trimmed)
		if err != nil {
			return Document{}, err
		}
		doc := Empty()
		doc.Vaults = vaults
		doc.Migrated = true
		return doc, nil
	case '{':
		return decodeEnvelope(trimmed)
	}
	return Document{}, fmt.Errorf("%w: top-level value is neither array nor object", ErrUnrecognized)
}

type envelope struct {
	Version  int             `json:"version"`
	Vaults   json.RawMessage `json:"vaults"`
	Settings json.RawMessage `json:"settings"`
}

func decodeEnvelope(data []byte) (Document, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Document{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Vaults == nil && env.Settings == nil {
		return Document{}, fmt.Errorf("%w: object has neither vaults nor settings", ErrUnrecognized)
	}

	doc := Empty()
	doc.Migrated = env.Version < CurrentVersion

	if env.Vaults != nil && !isNull(env.Vaults) {
		vaults, migrated, err := decodeVaults(env.Vaults)
		if err != nil {
			return Document{}, err
		}
		doc.Vaults = vaults
		doc.Migrated = doc.Migrated || migrated
	}

	if env.Settings != nil && !isNull(env.Settings) {
		settings, migrated, err := decodeSettings(env.Settings)
		if err != nil {
			return Document{}, err
		}
		doc.Settings = settings
		doc.Migrated = doc.Migrated || migrated
	}

	return doc, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
