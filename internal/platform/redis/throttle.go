package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle admits each key at most once per interval across all replicas
// using SET NX with an expiry.
type Throttle struct {
	client redis.Cmdable
	prefix string
}

func NewThrottle(client redis.Cmdable, prefix string) *Throttle {
	return &Throttle{client: client, prefix: prefix}
}

// Allow claims key for interval and reports whether this caller won it.
func (t *Throttle) Allow(ctx context.Context, key string, interval time.Duration) (bool, error) {
	won, err := t.client.SetNX(ctx, t.prefix+key, 1, interval).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return won, nil
}
