// Package bucket stores sliding-window request counters.
package bucket

import (
	"context"
	"time"

	"estatehub/internal/ratelimit/models"
	platformsync "estatehub/pkg/platform/sync"
)

// InMemoryBucketStore keeps sliding windows in process memory. Counters are
// per replica; use RedisBucketStore when several replicas share a budget.
type InMemoryBucketStore struct {
	buckets *platformsync.ShardedMap[*slidingWindow]
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// tryConsume records cost requests at now when they fit within limit.
func (sw *slidingWindow) tryConsume(cost, limit int, now time.Time) (allowed bool, remaining int, resetAt time.Time) {
	sw.cleanupExpired(now)

	if len(sw.timestamps)+cost > limit {
		if len(sw.timestamps) > 0 {
			return false, 0, sw.timestamps[0].Add(sw.window)
		}
		return false, 0, now.Add(sw.window)
	}

	for range cost {
		sw.timestamps = append(sw.timestamps, now)
	}

	return true, limit - len(sw.timestamps), sw.timestamps[0].Add(sw.window)
}

func (sw *slidingWindow) cleanupExpired(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

type MemoryOption func(*InMemoryBucketStore)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryBucketStore) {
		s.now = now
	}
}

func NewInMemoryBucketStore(opts ...MemoryOption) *InMemoryBucketStore {
	s := &InMemoryBucketStore{
		buckets: platformsync.NewShardedMap[*slidingWindow](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow checks if a request is allowed and records it.
func (s *InMemoryBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request of the given cost is allowed.
func (s *InMemoryBucketStore) AllowN(_ context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	var (
		allowed   bool
		remaining int
		resetAt   time.Time
	)
	s.buckets.Do(key, func(buckets map[string]*slidingWindow) {
		bucket, ok := buckets[key]
		if !ok {
			bucket = &slidingWindow{window: window}
			buckets[key] = bucket
		}
		allowed, remaining, resetAt = bucket.tryConsume(cost, limit, now)
	})

	return &models.Result{
		Allowed:    allowed,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: models.RetryAfterSeconds(allowed, resetAt, now),
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.buckets.Delete(key)
	return nil
}
