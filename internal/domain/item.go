package domain

import "time"

// WatchItem identifies one market instrument to track: the app (game) scope
// and the exact market hash name within it. Items are unique per
// (AppID, MarketHashName) and are never deleted by the scanner.
type WatchItem struct {
	ID             int64     `json:"id"`
	AppID          int       `json:"app_id"`
	MarketHashName string    `json:"market_hash_name"`
	CreatedAt      time.Time `json:"created_at"`
}
