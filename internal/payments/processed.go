package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProcessedTracker remembers handled webhook events in Redis so
// provider retries do not flip state twice. The check is read-only;
// callers mark the event only after the work it carries has succeeded,
// so a failed delivery stays retryable.
type RedisProcessedTracker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisProcessedTracker creates a tracker over the given Redis client.
func NewRedisProcessedTracker(client *redis.Client, ttl time.Duration) *RedisProcessedTracker {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisProcessedTracker{redis: client, ttl: ttl}
}

func processedKey(provider, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", provider, eventID)
}

// AlreadyProcessed reports whether the event was handled before. It does
// not mark anything.
func (t *RedisProcessedTracker) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := t.redis.Exists(ctx, processedKey(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("payments: check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records the event as handled, returning false if another
// delivery marked it first.
func (t *RedisProcessedTracker) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	set, err := t.redis.SetNX(ctx, processedKey(provider, eventID), "1", t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("payments: mark processed: %w", err)
	}
	return set, nil
}
