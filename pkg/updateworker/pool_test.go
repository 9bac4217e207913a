package updateworker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewUpdateWorkerPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	start := time.Now()
	pool.Dispatch(UpdateJob{
		UserID: 1,
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 10*time.Millisecond, "Dispatch must not block the caller")
}

func TestPool_SameUserSequentialProcessing(t *testing.T) {
	pool := NewUpdateWorkerPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var results []int
	var mu sync.Mutex
	done := make(chan struct{})

	const userID int64 = 4242
	for i := 1; i <= 5; i++ {
		val := i
		pool.Dispatch(UpdateJob{
			UserID: userID,
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				if len(results) == 5 {
					close(done)
				}
				mu.Unlock()
				return nil
			},
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, results, "same-user updates must keep arrival order")
}

func TestPool_DifferentUsersRunConcurrently(t *testing.T) {
	pool := NewUpdateWorkerPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var running int32
	var peak int32
	var wg sync.WaitGroup

	// Users 0..3 land on distinct shards with 4 workers
	for i := int64(0); i < 4; i++ {
		wg.Add(1)
		pool.Dispatch(UpdateJob{
			UserID: i,
			Handler: func(ctx context.Context) error {
				defer wg.Done()
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			},
		})
	}

	wg.Wait()
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "distinct users should process in parallel")
}

func TestPool_TryDispatchBackpressure(t *testing.T) {
	pool := NewUpdateWorkerPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	block := make(chan struct{})
	slow := func(ctx context.Context) error {
		<-block
		return nil
	}

	// First job occupies the worker, second fills the queue
	require.True(t, pool.TryDispatch(UpdateJob{UserID: 1, Handler: slow}))
	time.Sleep(20 * time.Millisecond)
	require.True(t, pool.TryDispatch(UpdateJob{UserID: 1, Handler: slow}))

	// Queue is full now
	assert.False(t, pool.TryDispatch(UpdateJob{UserID: 1, Handler: slow}))
	close(block)
}

func TestPool_StatsCountProcessedJobs(t *testing.T) {
	pool := NewUpdateWorkerPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		pool.Dispatch(UpdateJob{
			UserID: int64(i),
			Handler: func(ctx context.Context) error {
				defer wg.Done()
				return nil
			},
		})
	}
	wg.Wait()
	pool.Stop()

	stats := pool.GetStats()
	assert.Equal(t, int64(6), stats.TotalDispatched)
	assert.Equal(t, int64(6), stats.TotalProcessed)
	assert.Zero(t, stats.TotalDropped)
}

func TestPool_PanicInHandlerDoesNotKillWorker(t *testing.T) {
	pool := NewUpdateWorkerPool(1, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	done := make(chan struct{})
	pool.Dispatch(UpdateJob{
		UserID: 1,
		Handler: func(ctx context.Context) error {
			panic("boom")
		},
	})
	pool.Dispatch(UpdateJob{
		UserID: 1,
		Handler: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after a panicking handler")
	}

	assert.GreaterOrEqual(t, pool.GetStats().TotalErrors, int64(1))
}
