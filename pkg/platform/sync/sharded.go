// Package sync provides lock-striped containers for hot in-memory state.
package sync

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// ShardedMap is a string-keyed map split across shards, each guarded by its
// own mutex, so unrelated keys do not contend.
type ShardedMap[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

func NewShardedMap[V any]() *ShardedMap[V] {
	m := &ShardedMap[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

// Do runs fn while holding the lock of key's shard. fn may read and write
// any entry of the shard map it receives but must not retain it.
func (m *ShardedMap[V]) Do(key string, fn func(items map[string]V)) {
	s := &m.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.items)
}

// Delete removes key.
func (m *ShardedMap[V]) Delete(key string) {
	m.Do(key, func(items map[string]V) {
		delete(items, key)
	})
}

// Len returns the number of entries across all shards.
func (m *ShardedMap[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
