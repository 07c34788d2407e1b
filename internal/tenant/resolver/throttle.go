package resolver

import (
	"context"
	"time"

	psync "estatehub/pkg/platform/sync"
)

// LocalThrottle admits each key at most once per interval within this process.
// Entries are per tenant, so the map stays as small as the tenant table.
type LocalThrottle struct {
	until *psync.ShardedMap[time.Time]
	now   func() time.Time
}

func NewLocalThrottle(now func() time.Time) *LocalThrottle {
	if now == nil {
		now = time.Now
	}
	return &LocalThrottle{until: psync.NewShardedMap[time.Time](), now: now}
}

// Allow claims key for interval and reports whether this caller won it.
func (t *LocalThrottle) Allow(_ context.Context, key string, interval time.Duration) (bool, error) {
	now := t.now()
	won := false
	t.until.Do(key, func(items map[string]time.Time) {
		if until, ok := items[key]; ok && now.Before(until) {
			return
		}
		items[key] = now.Add(interval)
		won = true
	})
	return won, nil
}
