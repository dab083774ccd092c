package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotCache caches each doctor's derived booked map in Redis. Entries are
// short-lived and invalidated on every booking or cancellation, so a stale
// read can only under- or over-report within the TTL window; the partial
// unique index remains the authority for collisions.
type SlotCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSlotCache creates a cache over the given Redis client.
func NewSlotCache(client *redis.Client, ttl time.Duration) *SlotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SlotCache{redis: client, ttl: ttl}
}

func (c *SlotCache) key(doctorID string) string {
	return "slots:" + doctorID
}

// Get returns the cached booked map, or ok=false on a miss.
func (c *SlotCache) Get(ctx context.Context, doctorID string) (map[string][]string, bool, error) {
	if c == nil || c.redis == nil {
		return nil, false, nil
	}
	data, err := c.redis.Get(ctx, c.key(doctorID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("slot cache: get: %w", err)
	}
	var booked map[string][]string
	if err := json.Unmarshal(data, &booked); err != nil {
		return nil, false, fmt.Errorf("slot cache: decode: %w", err)
	}
	return booked, true, nil
}

// Set stores the booked map with the cache TTL.
func (c *SlotCache) Set(ctx context.Context, doctorID string, booked map[string][]string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(booked)
	if err != nil {
		return fmt.Errorf("slot cache: encode: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(doctorID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("slot cache: set: %w", err)
	}
	return nil
}

// Invalidate drops the cached map for a doctor.
func (c *SlotCache) Invalidate(ctx context.Context, doctorID string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(doctorID)).Err(); err != nil {
		return fmt.Errorf("slot cache: invalidate: %w", err)
	}
	return nil
}
