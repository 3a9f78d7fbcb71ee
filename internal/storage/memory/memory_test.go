package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmynk/billvault/internal/storage"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := New()
	defer store.Close()

	t.Run("Load before Save returns ErrNotFound", func(t *testing.T) {
		_, err := store.Load(ctx)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save then Load round trips", func(t *testing.T) {
		if err := store.Save(ctx, []byte(`{"vaults":[]}`)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got) != `{"vaults":[]}` {
			t.Errorf("Load = %s", got)
		}
	})

	t.Run("empty Save is still a saved value", func(t *testing.T) {
		s := New()
		if err := s.Save(ctx, nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Load = %q, want empty", got)
		}
	})

	t.Run("Save and Load copy the bytes", func(t *testing.T) {
		s := New()
		data := []byte("first")
		if err := s.Save(ctx, data); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		data[0] = 'X'

		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got) != "first" {
			t.Fatalf("Load = %s, want first", got)
		}
		got[0] = 'Y'

		again, _ := s.Load(ctx)
		if string(again) != "first" {
			t.Errorf("Load after caller mutation = %s, want first", again)
		}
	})

	t.Run("Saves counts calls", func(t *testing.T) {
		s := New()
		for i := 0; i < 3; i++ {
			if err := s.Save(ctx, []byte("x")); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}
		if s.Saves() != 3 {
			t.Errorf("Saves = %d, want 3", s.Saves())
		}
	})
}

func TestNewWithData(t *testing.T) {
	ctx := context.Background()
	seed := []byte(`[{"id":"v1"}]`)
	store := NewWithData(seed)
	seed[0] = '{'

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `[{"id":"v1"}]` {
		t.Errorf("Load = %s", got)
	}
	if store.Saves() != 0 {
		t.Errorf("Saves = %d, want 0 for preloaded data", store.Saves())
	}
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Save(ctx, []byte("payload")); err != nil {
				t.Errorf("Save failed: %v", err)
			}
			if _, err := store.Load(ctx); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.Saves() != 20 {
		t.Errorf("Saves = %d, want 20", store.Saves())
	}
}
