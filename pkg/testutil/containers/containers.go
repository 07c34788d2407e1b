//go:build integration

// Package containers starts the Docker backends used by integration suites.
// Each backend is started once per test binary and shared between suites.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out the shared backends, starting each on first use.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
	redis    *RedisContainer
}

var shared = sync.OnceValue(func() *Manager { return &Manager{} })

func GetManager() *Manager { return shared() }

// lazy returns *slot, filling it with start under mu when empty.
func lazy[T any](m *Manager, t *testing.T, slot **T, start func(*testing.T) *T) *T {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if *slot == nil {
		*slot = start(t)
	}
	return *slot
}

// GetPostgres returns the migrated catalog database.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	return lazy(m, t, &m.postgres, NewPostgresContainer)
}

// GetKafka returns the event broker.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	return lazy(m, t, &m.kafka, NewKafkaContainer)
}

// GetRedis returns the cache used by rate limiting and activity throttling.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	return lazy(m, t, &m.redis, NewRedisContainer)
}
