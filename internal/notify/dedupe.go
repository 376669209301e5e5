package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper tracks which decisions have already been notified, keyed by
// correlation ID plus outcome. De-duplication is best-effort: suppressing a
// repeat notification is nice to have, but a failure here must never block
// delivery of a first notification.
type Deduper interface {
	// Seen reports whether the key was already notified.
	Seen(ctx context.Context, key string) (bool, error)

	// Mark records the key as notified.
	Mark(ctx context.Context, key string) error
}

const dedupeKeyPrefix = "seatwise:notified:"

// RedisDeduper implements Deduper on a shared redis instance so that
// de-duplication holds across notifier replicas.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a Deduper with the given entry TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{
		client: client,
		ttl:    ttl,
	}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupeKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe lookup: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, key string) error {
	if err := d.client.Set(ctx, dedupeKeyPrefix+key, 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("dedupe mark: %w", err)
	}
	return nil
}
