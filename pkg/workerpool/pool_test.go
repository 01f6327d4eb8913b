package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/pkg/workerpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(context.Background(), func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	assert.EqualValues(t, n, count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(context.Background(), func() {
		close(started)
		<-blocker
	}))
	<-started

	// Fill the queue (capacity 2).
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))

	err := pool.Submit(func() {})
	assert.True(t, errors.Is(err, workerpool.ErrPoolFull))
	close(blocker)
}

func TestPool_ClosedRejects(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(context.Background(), func() {}), workerpool.ErrPoolClosed)
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	require.NoError(t, pool.SubmitWait(context.Background(), func() { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, pool.SubmitWait(context.Background(), func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
}

func TestPool_EachVisitsEveryIndex(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Shutdown()

	out := make([]int, 20)
	require.NoError(t, pool.Each(context.Background(), len(out), func(_ context.Context, i int) {
		out[i] = i * i
	}))
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestPool_EachStopsOnCancel(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int64
	err := pool.Each(ctx, 100, func(context.Context, int) { ran.Add(1) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, ran.Load(), int64(100))
}
