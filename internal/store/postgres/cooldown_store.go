package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelory/steamflipper/internal/domain"
)

// CooldownStore implements domain.CooldownStore using PostgreSQL. One row per
// item; MarkNotified upserts on the item name.
type CooldownStore struct {
	pool *pgxpool.Pool
}

// NewCooldownStore creates a CooldownStore backed by the given pool.
func NewCooldownStore(pool *pgxpool.Pool) *CooldownStore {
	return &CooldownStore{pool: pool}
}

// LastNotified returns when the item was last announced, or
// domain.ErrNotFound if it never was.
func (s *CooldownStore) LastNotified(ctx context.Context, itemName string) (time.Time, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT notified_at FROM notifications WHERE item_name = $1",
		itemName,
	).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("postgres: cooldown for %s: %w", itemName, domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: get cooldown: %w", err)
	}
	return at, nil
}

// MarkNotified records a notification time for the item, overwriting any
// previous one.
func (s *CooldownStore) MarkNotified(ctx context.Context, itemName string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (item_name, notified_at)
		VALUES ($1, $2)
		ON CONFLICT (item_name)
		DO UPDATE SET notified_at = EXCLUDED.notified_at`,
		itemName, at,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark notified: %w", err)
	}
	return nil
}
