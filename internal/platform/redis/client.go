// Package redis connects the shared go-redis client used for rate limiting
// and tenant activity throttling, and exports its pool statistics.
package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"estatehub/internal/platform/config"
)

// Client is a go-redis client registered with a pool stats collector.
type Client struct {
	*redis.Client
}

// New dials cfg.URL and verifies it with PING. An empty URL returns a nil
// client and no error.
func New(ctx context.Context, cfg config.RedisConfig, reg prometheus.Registerer) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPoolConfig(opts, cfg)

	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if reg != nil {
		if err := reg.Register(NewPoolCollector(rc)); err != nil {
			_ = rc.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("register redis pool metrics: %w", err)
		}
	}
	return &Client{Client: rc}, nil
}

func applyPoolConfig(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Health matches health.CheckFunc.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}

type poolStatser interface {
	PoolStats() *redis.PoolStats
}

// PoolCollector reads go-redis pool statistics at scrape time.
type PoolCollector struct {
	pool                          poolStatser
	hits, misses, timeouts, stale *prometheus.Desc
	total, idle                   *prometheus.Desc
}

func NewPoolCollector(pool poolStatser) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("estatehub_redis_pool_"+name, help, nil, nil)
	}
	return &PoolCollector{
		pool:     pool,
		hits:     desc("hits_total", "Connections reused from the pool."),
		misses:   desc("misses_total", "Connection requests that found the pool empty."),
		timeouts: desc("timeouts_total", "Connection requests that timed out waiting for the pool."),
		stale:    desc("stale_conns_total", "Stale connections removed from the pool."),
		total:    desc("total_conns", "Open connections."),
		idle:     desc("idle_conns", "Idle connections."),
	}
}

func (p *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{p.hits, p.misses, p.timeouts, p.stale, p.total, p.idle} {
		ch <- d
	}
}

func (p *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.pool.PoolStats()
	ch <- prometheus.MustNewConstMetric(p.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(p.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(p.timeouts, prometheus.CounterValue, float64(s.Timeouts))
	ch <- prometheus.MustNewConstMetric(p.stale, prometheus.CounterValue, float64(s.StaleConns))
	ch <- prometheus.MustNewConstMetric(p.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(p.idle, prometheus.GaugeValue, float64(s.IdleConns))
}
