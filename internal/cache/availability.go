package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/railbook/train-booking-system/internal/inventory"
)

// AvailabilityCache caches availability quotes for display reads so that
// search traffic does not contend with booking mutations. Entries are
// short-lived and invalidated whenever the class's inventory mutates;
// staleness between mutation and invalidation is acceptable for display.
// A nil cache disables caching entirely.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache on the given redis client.
func New(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func key(runID uuid.UUID, class inventory.CoachClass, from, to int) string {
	return fmt.Sprintf("avail:%s:%s:%d-%d", runID, class, from, to)
}

// Get returns a cached quote, or false on miss or any cache failure.
func (c *AvailabilityCache) Get(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, from, to int) (inventory.Availability, bool) {
	if c == nil || c.rdb == nil {
		return inventory.Availability{}, false
	}

	data, err := c.rdb.Get(ctx, key(runID, class, from, to)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("availability cache get failed: %v", err)
		}
		return inventory.Availability{}, false
	}

	var a inventory.Availability
	if err := json.Unmarshal(data, &a); err != nil {
		return inventory.Availability{}, false
	}
	return a, true
}

// Set stores a quote. Cache failures are logged and ignored; the cache is
// best-effort.
func (c *AvailabilityCache) Set(ctx context.Context, runID uuid.UUID, class inventory.CoachClass, from, to int, a inventory.Availability) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(runID, class, from, to), data, c.ttl).Err(); err != nil {
		log.Printf("availability cache set failed: %v", err)
	}
}

// Invalidate drops every cached quote for one (run, class) pair. Called
// after each booking mutation.
func (c *AvailabilityCache) Invalidate(ctx context.Context, runID uuid.UUID, class inventory.CoachClass) {
	if c == nil || c.rdb == nil {
		return
	}

	pattern := fmt.Sprintf("avail:%s:%s:*", runID, class)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	pipe := c.rdb.Pipeline()
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("availability cache scan failed: %v", err)
		return
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Printf("availability cache invalidate failed: %v", err)
	}
}
