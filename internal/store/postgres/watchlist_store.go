package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelory/steamflipper/internal/domain"
)

// WatchlistStore implements domain.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *pgxpool.Pool
}

// NewWatchlistStore creates a WatchlistStore backed by the given pool.
func NewWatchlistStore(pool *pgxpool.Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Add inserts an item into the watchlist, ignoring duplicates, and returns
// the stored row either way.
func (s *WatchlistStore) Add(ctx context.Context, appID int, marketHashName string) (domain.WatchItem, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watchlist (app_id, market_hash_name)
		VALUES ($1, $2)
		ON CONFLICT (app_id, market_hash_name) DO NOTHING`,
		appID, marketHashName,
	)
	if err != nil {
		return domain.WatchItem{}, fmt.Errorf("postgres: add watchlist item: %w", err)
	}

	var item domain.WatchItem
	err = s.pool.QueryRow(ctx, `
		SELECT id, app_id, market_hash_name, created_at
		FROM watchlist
		WHERE app_id = $1 AND market_hash_name = $2`,
		appID, marketHashName,
	).Scan(&item.ID, &item.AppID, &item.MarketHashName, &item.CreatedAt)
	if err != nil {
		return domain.WatchItem{}, fmt.Errorf("postgres: get watchlist item: %w", err)
	}
	return item, nil
}

// List returns the watchlist in insertion order; this is the scan order.
func (s *WatchlistStore) List(ctx context.Context) ([]domain.WatchItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, app_id, market_hash_name, created_at
		FROM watchlist
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list watchlist: %w", err)
	}
	defer rows.Close()

	var items []domain.WatchItem
	for rows.Next() {
		var item domain.WatchItem
		if err := rows.Scan(&item.ID, &item.AppID, &item.MarketHashName, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list watchlist: %w", err)
	}
	return items, nil
}
