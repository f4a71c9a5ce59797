package domain

import (
	"context"
	"time"
)

// OpportunityFilter narrows and orders List queries over the audit log.
type OpportunityFilter struct {
	// Profitable filters by verdict when non-nil.
	Profitable *bool
	// Limit caps the number of rows returned; 0 means the store default.
	Limit int
	// OrderByProfit orders by profit percentage instead of detection recency.
	OrderByProfit bool
	// BestPerItem collapses the result to the single best row per item
	// (highest net profit, most recent on ties).
	BestPerItem bool
}

// OpportunityStore is the append-only sink for evaluated flips. Records are
// never updated or deleted.
type OpportunityStore interface {
	Insert(ctx context.Context, rec Record) (int64, error)
	List(ctx context.Context, f OpportunityFilter) ([]Record, error)
}

// CooldownStore tracks the last notification time per item. Implementations
// must upsert on MarkNotified and return ErrNotFound from LastNotified when
// the item has never been announced.
type CooldownStore interface {
	LastNotified(ctx context.Context, itemName string) (time.Time, error)
	MarkNotified(ctx context.Context, itemName string, at time.Time) error
}

// WatchlistStore persists the set of tracked items. Add is idempotent; List
// returns items in insertion order, which is also the scan order.
type WatchlistStore interface {
	Add(ctx context.Context, appID int, marketHashName string) (WatchItem, error)
	List(ctx context.Context) ([]WatchItem, error)
}
