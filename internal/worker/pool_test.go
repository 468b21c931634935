package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg PoolConfig) *Pool {
	t.Helper()
	p := NewPool(cfg, nil)
	require.NoError(t, p.Start())
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
	})
	return p
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(PoolConfig{}, nil)

	assert.Equal(t, 1, p.Size())
	assert.Equal(t, 4, cap(p.jobs))
	assert.Equal(t, 30*time.Second, p.shutdownTimeout)
	assert.False(t, p.IsRunning())
}

func TestPool_StartTwice(t *testing.T) {
	p := newTestPool(t, PoolConfig{Workers: 2})
	assert.Error(t, p.Start())
}

func TestPool_SubmitRunsJobs(t *testing.T) {
	p := newTestPool(t, PoolConfig{Workers: 3, QueueSize: 10})

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1}, nil)
	assert.ErrorIs(t, p.Submit(func(ctx context.Context) {}), ErrPoolClosed)
}

func TestPool_SubmitNil(t *testing.T) {
	p := newTestPool(t, PoolConfig{Workers: 1})
	assert.Error(t, p.Submit(nil))
}

func TestPool_QueueFull(t *testing.T) {
	p := newTestPool(t, PoolConfig{Workers: 1, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the only worker
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	// Fill the single queue slot
	require.NoError(t, p.Submit(func(ctx context.Context) {}))

	err := p.Submit(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
}

func TestPool_ShutdownWaitsForQueuedJobs(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1, QueueSize: 5}, nil)
	require.NoError(t, p.Start())

	var count int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(func(ctx context.Context) {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&count, 1)
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int32(5), atomic.LoadInt32(&count))
	assert.False(t, p.IsRunning())
	assert.ErrorIs(t, p.Submit(func(ctx context.Context) {}), ErrPoolClosed)
	assert.ErrorIs(t, p.Start(), ErrPoolClosed)
}

func TestPool_ShutdownTimeout(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1}, nil)
	require.NoError(t, p.Start())

	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_ShutdownIdempotent(t *testing.T) {
	p := NewPool(PoolConfig{Workers: 1}, nil)
	require.NoError(t, p.Start())

	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_PanickingJobKeepsWorker(t *testing.T) {
	p := newTestPool(t, PoolConfig{Workers: 1})

	require.NoError(t, p.Submit(func(ctx context.Context) {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}

	stats := p.GetStats()
	assert.Equal(t, int64(1), stats["jobs_panicked"])
	assert.Equal(t, 1, stats["total_workers"])
	assert.Equal(t, true, stats["running"])
	assert.Equal(t, 0, stats["pending_jobs"])
}
