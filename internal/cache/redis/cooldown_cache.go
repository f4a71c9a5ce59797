package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelory/steamflipper/internal/domain"
)

// CooldownCache implements domain.CooldownStore with one Redis key per item.
// Keys carry the notification timestamp and expire after the cooldown
// window, so stale state cleans itself up.
type CooldownCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCooldownCache creates a CooldownCache whose keys expire after ttl. The
// ttl should be at least the notification cooldown window.
func NewCooldownCache(c *Client, ttl time.Duration) *CooldownCache {
	return &CooldownCache{
		rdb: c.rdb,
		ttl: ttl,
	}
}

func cooldownKey(itemName string) string {
	return "cooldown:" + itemName
}

// LastNotified returns the stored notification time for the item, or
// domain.ErrNotFound once the key has expired or was never set.
func (c *CooldownCache) LastNotified(ctx context.Context, itemName string) (time.Time, error) {
	val, err := c.rdb.Get(ctx, cooldownKey(itemName)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, fmt.Errorf("redis: cooldown for %s: %w", itemName, domain.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: get cooldown: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("redis: parse cooldown timestamp %q: %w", val, err)
	}
	return at, nil
}

// MarkNotified stores the notification time under the item's key with the
// configured expiry, overwriting any previous value.
func (c *CooldownCache) MarkNotified(ctx context.Context, itemName string, at time.Time) error {
	err := c.rdb.Set(ctx, cooldownKey(itemName), at.Format(time.RFC3339Nano), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis: mark notified: %w", err)
	}
	return nil
}
