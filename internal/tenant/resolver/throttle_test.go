package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalThrottle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th := NewLocalThrottle(func() time.Time { return now })
	ctx := context.Background()

	ok, err := th.Allow(ctx, "acme", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = th.Allow(ctx, "acme", time.Minute)
	assert.False(t, ok, "inside the interval")

	ok, _ = th.Allow(ctx, "other", time.Minute)
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _ = th.Allow(ctx, "acme", time.Minute)
	assert.True(t, ok, "interval elapsed")
}

func TestLocalThrottle_OneWinnerUnderContention(t *testing.T) {
	th := NewLocalThrottle(nil)
	var won atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := th.Allow(context.Background(), "acme", time.Hour); ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())
}
