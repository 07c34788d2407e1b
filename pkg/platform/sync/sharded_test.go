package sync

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMap_DoAndDelete(t *testing.T) {
	m := NewShardedMap[int]()

	m.Do("a", func(items map[string]int) { items["a"] = 1 })
	m.Do("", func(items map[string]int) { items[""] = 2 })
	assert.Equal(t, 2, m.Len())

	var got int
	m.Do("a", func(items map[string]int) { got = items["a"] })
	assert.Equal(t, 1, got)

	m.Delete("a")
	m.Delete("missing")
	assert.Equal(t, 1, m.Len())
}

func TestShardedMap_SameKeySerializes(t *testing.T) {
	m := NewShardedMap[int]()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Do("counter", func(items map[string]int) { items["counter"]++ })
		}()
	}
	wg.Wait()

	var got int
	m.Do("counter", func(items map[string]int) { got = items["counter"] })
	assert.Equal(t, 100, got)
}

func TestShardedMap_ShardForIsStable(t *testing.T) {
	for i := range 50 {
		key := "key-" + strconv.Itoa(i)
		shard := shardFor(key)
		assert.Equal(t, shard, shardFor(key))
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, shardCount)
	}
	assert.Equal(t, 0, shardFor(""))
}
