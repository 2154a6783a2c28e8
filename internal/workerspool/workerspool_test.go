package workerspool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBoundsParallelism(t *testing.T) {
	const maxParallelism = 3
	const numTasks = 20
	pool := New(maxParallelism)
	require.Equal(t, maxParallelism, pool.MaxParallelism())

	var running, peak, done atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numTasks)
	for range numTasks {
		pool.WaitToStart(func() {
			defer wg.Done()
			now := running.Add(1)
			for {
				seen := peak.Load()
				if now <= seen || peak.CompareAndSwap(seen, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			done.Add(1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(numTasks), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(maxParallelism))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestPoolDefaultsToNumCPU(t *testing.T) {
	assert.Greater(t, New(0).MaxParallelism(), 0)
	assert.Greater(t, New(-5).MaxParallelism(), 0)
}
