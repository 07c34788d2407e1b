package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/platform/config"
)

func TestNew_EmptyURLDisablesClient(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"}, prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

type fixedStats goredis.PoolStats

func (f fixedStats) PoolStats() *goredis.PoolStats {
	s := goredis.PoolStats(f)
	return &s
}

func TestPoolCollector(t *testing.T) {
	c := NewPoolCollector(fixedStats{Hits: 7, Misses: 2, TotalConns: 4, IdleConns: 3})

	expected := `
# HELP estatehub_redis_pool_hits_total Connections reused from the pool.
# TYPE estatehub_redis_pool_hits_total counter
estatehub_redis_pool_hits_total 7
# HELP estatehub_redis_pool_idle_conns Idle connections.
# TYPE estatehub_redis_pool_idle_conns gauge
estatehub_redis_pool_idle_conns 3
`
	require.NoError(t, promtestutil.CollectAndCompare(c, strings.NewReader(expected),
		"estatehub_redis_pool_hits_total", "estatehub_redis_pool_idle_conns"))
	assert.Equal(t, 6, promtestutil.CollectAndCount(c))
}

func TestApplyPoolConfig_KeepsDefaultsForZeroValues(t *testing.T) {
	opts := &goredis.Options{PoolSize: 10}

	applyPoolConfig(opts, config.RedisConfig{MinIdleConns: 2})

	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
}
