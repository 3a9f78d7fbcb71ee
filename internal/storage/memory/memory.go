// Package memory is an in-process storage.Store used by tests and by the
// server's ephemeral mode.
package memory

import (
	"context"
	"sync"

	"github.com/mmynk/billvault/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	data  []byte
	saved bool
	saves int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NewWithData returns a store pre-loaded with data, as if it had been saved
// by an earlier run.
func NewWithData(data []byte) *Store {
	return &Store{data: append([]byte(nil), data...), saved: true}
}

func (s *Store) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *Store) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.saved = true
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Close() error { return nil }
