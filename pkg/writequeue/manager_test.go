package writequeue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesSameKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var running atomic.Int32
	var overlapped atomic.Bool
	var order []int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Execute(context.Background(), "note:1", func() error {
				if running.Add(1) > 1 {
					overlapped.Store(true)
				}
				time.Sleep(time.Millisecond)
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.False(t, overlapped.Load())
	assert.Len(t, order, 50)
}

func TestManager_DifferentKeysRunInParallel(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	var wg sync.WaitGroup
	for _, key := range []string{"note:1", "note:2"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = m.Execute(context.Background(), key, func() error {
				started <- struct{}{}
				<-release
				return nil
			})
		}(key)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("operations on different keys did not run concurrently")
		}
	}
	close(release)
	wg.Wait()

	assert.Equal(t, 2, m.QueueCount())
}

func TestManager_ReturnsOperationError(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	want := assert.AnError
	err := m.Execute(context.Background(), "task:9", func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestManager_QueueFull(t *testing.T) {
	m := New(&Config{QueueCapacity: 1, WriteTimeout: time.Second, IdleTimeout: time.Minute}, nil)
	defer m.Shutdown(context.Background())

	block := make(chan struct{})
	running := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func() error {
			close(running)
			<-block
			return nil
		})
	}()
	<-running

	// fills the only slot
	go func() {
		_ = m.Execute(context.Background(), "k", func() error { return nil })
	}()
	require.Eventually(t, func() bool { return m.QueuedCount("k") == 1 }, time.Second, time.Millisecond)

	err := m.Execute(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueFull)
	close(block)
}

func TestManager_StartedOperationIsAwaited(t *testing.T) {
	m := New(&Config{QueueCapacity: 4, WriteTimeout: 20 * time.Millisecond, IdleTimeout: time.Minute}, nil)
	defer m.Shutdown(context.Background())

	// 已开始的操作超过等待时间，仍返回真实结果
	err := m.Execute(context.Background(), "k", func() error {
		time.Sleep(100 * time.Millisecond)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestManager_TimedOutOperationNeverRuns(t *testing.T) {
	m := New(&Config{QueueCapacity: 4, WriteTimeout: 20 * time.Millisecond, IdleTimeout: time.Minute}, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	running := make(chan struct{})
	first := make(chan error, 1)
	go func() {
		first <- m.Execute(context.Background(), "k", func() error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running

	var applied atomic.Int32
	err := m.Execute(context.Background(), "k", func() error {
		applied.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, ErrWriteTimeout)

	close(release)
	require.NoError(t, <-first)

	// 后续操作能执行，说明被放弃的操作已出队
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	assert.Equal(t, int32(0), applied.Load())
	assert.Equal(t, int64(2), m.GetMetrics().Executed)
}

func TestManager_CancelledOperationNeverRuns(t *testing.T) {
	m := New(&Config{QueueCapacity: 4, WriteTimeout: time.Second, IdleTimeout: time.Minute}, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	running := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "k", func() error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running

	ctx, cancel := context.WithCancel(context.Background())
	var applied atomic.Int32
	errs := make(chan error, 1)
	go func() {
		errs <- m.Execute(ctx, "k", func() error {
			applied.Add(1)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return m.QueuedCount("k") == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)

	close(release)
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	assert.Equal(t, int32(0), applied.Load())
}

func TestManager_ClosedAfterShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Execute(context.Background(), "k", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
	assert.True(t, m.IsClosed())
	assert.True(t, m.GetMetrics().IsClosed)
}

func TestManager_IdleQueueRetires(t *testing.T) {
	m := New(&Config{QueueCapacity: 2, WriteTimeout: time.Second, IdleTimeout: 10 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	require.Eventually(t, func() bool { return m.QueueCount() == 0 }, time.Second, time.Millisecond)

	// a retired key gets a fresh worker
	require.NoError(t, m.Execute(context.Background(), "k", func() error { return nil }))
	assert.Equal(t, int64(2), m.GetMetrics().Executed)
}

func TestManager_ShutdownDrainsQueued(t *testing.T) {
	m := New(&Config{QueueCapacity: 4, WriteTimeout: time.Second, IdleTimeout: time.Minute}, nil)

	block := make(chan struct{})
	running := make(chan struct{})
	var ran atomic.Int32
	errs := make(chan error, 2)
	go func() {
		errs <- m.Execute(context.Background(), "k", func() error {
			close(running)
			<-block
			ran.Add(1)
			return nil
		})
	}()
	<-running
	go func() {
		errs <- m.Execute(context.Background(), "k", func() error {
			ran.Add(1)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return m.QueuedCount("k") == 1 }, time.Second, time.Millisecond)

	shutdown := make(chan error, 1)
	go func() { shutdown <- m.Shutdown(context.Background()) }()
	require.Eventually(t, m.IsClosed, time.Second, time.Millisecond)
	close(block)

	require.NoError(t, <-shutdown)
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
	assert.Equal(t, int32(2), ran.Load())
}
