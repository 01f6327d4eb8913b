package event

import "sync"

// Value holds the current state of something observable. New subscribers
// receive the current value immediately, then later Sets. A subscriber that
// falls behind loses intermediate values, never the newest one.
type Value[T any] struct {
	mu  sync.RWMutex
	cur T
	bus *Bus[T]
}

// NewValue creates a Value starting at initial.
func NewValue[T any](initial T) *Value[T] {
	bus := NewBus[T](0)
	bus.latest = true
	return &Value[T]{cur: initial, bus: bus}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set stores x and publishes it.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	v.cur = x
	v.bus.Publish(x)
	v.mu.Unlock()
}

// Update applies fn to the current value under the lock, stores and
// publishes the result, and returns it.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = fn(v.cur)
	v.bus.Publish(v.cur)
	return v.cur
}

// Subscribe attaches a receiver primed with the current value.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sub := v.bus.Subscribe()
	sub.ch <- v.cur
	return sub
}

// Close detaches every subscriber.
func (v *Value[T]) Close() { v.bus.Close() }
