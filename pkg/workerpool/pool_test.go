package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Submit(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	var ran atomic.Bool
	err := p.Submit(context.Background(), func(context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestPool_SubmitAll(t *testing.T) {
	p := New(&Config{MaxWorkers: 4, QueueSize: 64}, nil)
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	fns := make([]func(context.Context) error, 10)
	for i := range fns {
		i := i
		fns[i] = func(context.Context) error {
			if i%3 == 0 {
				return boom
			}
			return nil
		}
	}

	errs := p.SubmitAll(context.Background(), fns)
	require.Len(t, errs, 10)
	for i, err := range errs {
		if i%3 == 0 {
			assert.ErrorIs(t, err, boom, "task %d", i)
		} else {
			assert.NoError(t, err, "task %d", i)
		}
	}

	m := p.GetMetrics()
	assert.Equal(t, int64(6), m.Completed)
	assert.Equal(t, int64(4), m.Failed)
}

func TestPool_RecoversPanic(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	err := p.Submit(context.Background(), func(context.Context) error {
		panic("bad task")
	})
	assert.ErrorIs(t, err, ErrTaskPanic)

	// worker survives
	assert.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestPool_ClosedRejectsTasks(t *testing.T) {
	p := New(nil, nil)
	require.NoError(t, p.Shutdown(context.Background()))

	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
	assert.ErrorIs(t, p.SubmitAsync(context.Background(), func(context.Context) error { return nil }), ErrWorkerPoolClosed)
	assert.True(t, p.IsClosed())
}

func TestPool_CancelledBeforeRun(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := p.SubmitAll(ctx, []func(context.Context) error{func(context.Context) error { return nil }})
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}
