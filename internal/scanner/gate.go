package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
)

// Gate decides whether a profitable flip may be (re-)announced. A prior
// notification for the same item within the cooldown window suppresses the
// next one; cooldown is per item, not per price, so fluctuating prices on
// one item still share a single window.
type Gate struct {
	store  domain.CooldownStore
	window time.Duration
	now    func() time.Time
}

// NewGate creates a Gate over the given cooldown store and window.
func NewGate(store domain.CooldownStore, window time.Duration) *Gate {
	return &Gate{
		store:  store,
		window: window,
		now:    time.Now,
	}
}

// AlreadyNotified reports whether the item was announced within the cooldown
// window, compared against wall-clock time at query time.
func (g *Gate) AlreadyNotified(ctx context.Context, itemName string) (bool, error) {
	last, err := g.store.LastNotified(ctx, itemName)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return g.now().UTC().Sub(last) < g.window, nil
}

// MarkNotified records that the item was announced now, resetting its
// cooldown window.
func (g *Gate) MarkNotified(ctx context.Context, itemName string) error {
	return g.store.MarkNotified(ctx, itemName, g.now().UTC())
}
