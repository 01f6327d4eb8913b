// Package workerpool provides a bounded goroutine pool.
//
// The client uses it to fan out per-line record lookups when enriching a
// cart and per-user status checks in the admin cart list, so a large cart
// never opens more than POOL_SIZE concurrent backend calls.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	err := pool.Each(ctx, len(details), func(ctx context.Context, i int) {
//	    details[i].Stock = lookup(ctx, details[i].RecordID)
//	})
package workerpool

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// New creates a Pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until a slot is available, ctx ends or the pool closes.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Each runs fn for every index in [0, n) on the pool and waits for all of
// them. Indexes not yet submitted when ctx ends are skipped.
func (p *Pool) Each(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	var wg sync.WaitGroup
	var submitErr error
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		if err := p.SubmitWait(ctx, func() {
			defer wg.Done()
			fn(ctx, i)
		}); err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	return submitErr
}

// Shutdown stops accepting new tasks and waits for in-flight tasks.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

// safeRun executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func safeRun(task func()) {
	defer func() { recover() }() //nolint:errcheck
	task()
}
