// Package event provides typed in-process broadcasting.
//
// Bus is a multicast stream with no replay: subscribers only see values
// published after they subscribed. Value is a Bus that remembers the last
// value and hands it to every new subscriber first.
package event

import (
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity used by NewBus(0).
const DefaultBuffer = 64

// Subscription is one receiver attached to a Bus.
type Subscription[T any] struct {
	ch   chan T
	once sync.Once
	stop func()
}

// C returns the receive channel. It is closed after Unsubscribe.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Unsubscribe detaches the subscription. Safe to call more than once.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(s.stop)
}

// Bus fans values out to every current subscriber.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]chan T
	next   uint64
	buffer int

	// latest makes a full subscriber lose its oldest buffered value
	// instead of v, so the newest value always gets through. Publishers
	// must be serialized.
	latest bool

	// OnDrop is called when a subscriber's buffer is full.
	OnDrop func(v T)
}

// NewBus creates a Bus whose subscribers buffer up to buffer values.
func NewBus[T any](buffer int) *Bus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus[T]{subs: map[uint64]chan T{}, buffer: buffer}
}

// Subscribe attaches a new receiver.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan T, b.buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	return &Subscription[T]{ch: ch, stop: func() { b.remove(id) }}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers v to every subscriber without blocking and returns the
// number of subscribers that received it.
func (b *Bus[T]) Publish(v T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- v:
			delivered++
			continue
		default:
		}
		if b.latest {
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
				delivered++
				continue
			default:
			}
		}
		if b.OnDrop != nil {
			b.OnDrop(v)
		}
	}
	return delivered
}

// Len reports the number of attached subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close detaches every subscriber.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
