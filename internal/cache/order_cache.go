// Package cache holds the redis snapshot cache backing the polling read
// path. Detail reads are served from a short-lived cached payload; every
// mutation on an order deletes its key, so clients never poll a stale
// terminal state for longer than one TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Second

type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to addr. An empty addr returns nil; all methods are nil-safe
// so callers can wire the cache unconditionally.
func New(addr string) *OrderCache {
	if addr == "" {
		return nil
	}
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr}), defaultTTL)
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func key(orderID uint64) string {
	return fmt.Sprintf("order:detail:%d", orderID)
}

func (c *OrderCache) GetSnapshot(ctx context.Context, orderID uint64) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, key(orderID)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *OrderCache) SetSnapshot(ctx context.Context, orderID uint64, payload []byte) {
	if c == nil {
		return
	}
	_ = c.rdb.Set(ctx, key(orderID), payload, c.ttl).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, orderID uint64) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, key(orderID)).Err()
}
