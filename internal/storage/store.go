// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
)

// StateKey is the fixed key the whole application document is stored under.
const StateKey = "billvault.state"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("storage: no saved state")

// Store defines the load/save capability the application state is persisted
// through. The document is opaque to the store; every Save overwrites the
// previous value completely.
// This abstraction allows swapping storage backends (SQLite, a JSON file,
// memory) without changing the vault layer.
type Store interface {
	// Load returns the last saved document, or ErrNotFound if none exists.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
