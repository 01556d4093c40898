package utils_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RogueTeam/volley/utils"
	"github.com/stretchr/testify/assert"
)

func Test_JobPool(t *testing.T) {
	t.Run("Bounded", func(t *testing.T) {
		assertions := assert.New(t)

		const size = 3
		pool := utils.NewJobPool(size)

		var running, peak atomic.Int64
		var wg sync.WaitGroup
		for range 20 {
			pool.Get()
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer pool.Put()

				current := running.Add(1)
				for {
					old := peak.Load()
					if current <= old || peak.CompareAndSwap(old, current) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
			}()
		}
		wg.Wait()

		assertions.LessOrEqual(peak.Load(), int64(size), "pool exceeded its size")
	})
	t.Run("Unbounded", func(t *testing.T) {
		assertions := assert.New(t)

		pool := utils.NewJobPool(0)
		assertions.Nil(pool, "expecting nil pool")

		// Never blocks
		for range 100 {
			pool.Get()
		}
		pool.Put()
	})
}

func Test_Sum(t *testing.T) {
	assertions := assert.New(t)

	assertions.Equal(6, utils.Sum([]int{1, 2, 3}))
	assertions.Equal(3*time.Second, utils.Sum([]time.Duration{time.Second, 2 * time.Second}))
	assertions.Equal(uint64(0), utils.Sum[uint64](nil))
}

func Test_Sleep(t *testing.T) {
	t.Run("Elapsed", func(t *testing.T) {
		assertions := assert.New(t)

		err := utils.Sleep(context.Background(), time.Millisecond)
		assertions.Nil(err, "sleep should finish")
	})
	t.Run("Cancelled", func(t *testing.T) {
		assertions := assert.New(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := utils.Sleep(ctx, time.Hour)
		assertions.ErrorIs(err, context.Canceled)
		assertions.Less(time.Since(start), time.Second)
	})
}
