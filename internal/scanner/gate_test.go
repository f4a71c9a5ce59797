package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
)

type memCooldownStore struct {
	marks map[string]time.Time
	err   error
}

func newMemCooldownStore() *memCooldownStore {
	return &memCooldownStore{marks: make(map[string]time.Time)}
}

func (s *memCooldownStore) LastNotified(ctx context.Context, itemName string) (time.Time, error) {
	if s.err != nil {
		return time.Time{}, s.err
	}
	at, ok := s.marks[itemName]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	return at, nil
}

func (s *memCooldownStore) MarkNotified(ctx context.Context, itemName string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.marks[itemName] = at
	return nil
}

func TestGateCooldownWindow(t *testing.T) {
	store := newMemCooldownStore()
	gate := NewGate(store, 30*time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }
	ctx := context.Background()

	// Never notified: gate is open.
	seen, err := gate.AlreadyNotified(ctx, "Fracture Case")
	if err != nil || seen {
		t.Fatalf("AlreadyNotified = (%v, %v), want (false, nil)", seen, err)
	}

	if err := gate.MarkNotified(ctx, "Fracture Case"); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}

	// Inside the window: suppressed.
	now = now.Add(29 * time.Minute)
	seen, err = gate.AlreadyNotified(ctx, "Fracture Case")
	if err != nil || !seen {
		t.Fatalf("AlreadyNotified inside window = (%v, %v), want (true, nil)", seen, err)
	}

	// Past the window: open again.
	now = now.Add(2 * time.Minute)
	seen, err = gate.AlreadyNotified(ctx, "Fracture Case")
	if err != nil || seen {
		t.Fatalf("AlreadyNotified past window = (%v, %v), want (false, nil)", seen, err)
	}

	// Re-marking resets the window.
	if err := gate.MarkNotified(ctx, "Fracture Case"); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	seen, _ = gate.AlreadyNotified(ctx, "Fracture Case")
	if !seen {
		t.Fatal("AlreadyNotified after re-mark = false, want true")
	}
}

func TestGatePerItemIsolation(t *testing.T) {
	store := newMemCooldownStore()
	gate := NewGate(store, 30*time.Minute)
	ctx := context.Background()

	if err := gate.MarkNotified(ctx, "item-a"); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}

	seen, err := gate.AlreadyNotified(ctx, "item-b")
	if err != nil || seen {
		t.Fatalf("AlreadyNotified(other item) = (%v, %v), want (false, nil)", seen, err)
	}
}

func TestGatePropagatesStoreErrors(t *testing.T) {
	store := newMemCooldownStore()
	store.err = errors.New("connection refused")
	gate := NewGate(store, 30*time.Minute)

	if _, err := gate.AlreadyNotified(context.Background(), "x"); err == nil {
		t.Fatal("AlreadyNotified swallowed the store error")
	}
}
