package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"estatehub/internal/ratelimit/models"
)

// slidingWindowScript trims the sorted set to the window, then adds cost
// members when they fit. Returns {allowed, count, reset_at_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')

if count + cost > limit then
  local reset = now + window
  if oldest[2] then
    reset = tonumber(oldest[2]) + window
  end
  return {0, count, reset}
end

for i = 1, cost do
  redis.call('ZADD', key, now, member .. ':' .. i)
end
redis.call('PEXPIRE', key, window)

local first = now
if oldest[2] then
  first = tonumber(oldest[2])
end
return {1, count + cost, first + window}
`)

// Scripter is the subset of the go-redis client the store needs.
type Scripter interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisBucketStore shares sliding windows across replicas through Redis sorted sets.
type RedisBucketStore struct {
	client Scripter
	prefix string
	now    func() time.Time
}

// NewRedisBucketStore namespaces every key with prefix.
func NewRedisBucketStore(client Scripter, prefix string) *RedisBucketStore {
	return &RedisBucketStore{client: client, prefix: prefix, now: time.Now}
}

// Allow checks if a request is allowed and records it.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request of the given cost is allowed.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	vals, err := slidingWindowScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, cost, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("sliding window %s: %w", key, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("sliding window %s: unexpected reply length %d", key, len(vals))
	}

	allowed := vals[0] == 1
	remaining := 0
	if allowed {
		remaining = max(limit-int(vals[1]), 0)
	}
	resetAt := time.UnixMilli(vals[2])

	return &models.Result{
		Allowed:    allowed,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: models.RetryAfterSeconds(allowed, resetAt, now),
	}, nil
}

// Reset clears the counter for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}
