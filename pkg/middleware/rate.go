package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/recordshop/pkg/response"
)

// bucket is a fixed-window request count for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}
	b.count++
	return b.count <= max
}

func (b *bucket) expired(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.After(b.resetAt)
}

// Limiter caps requests per client address. The feed server puts one in
// front of its streaming endpoints so a reconnect loop cannot pile up
// subscribers.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{max: max, window: window, now: time.Now, buckets: map[string]*bucket{}}
}

// Allow counts one request for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.allow(l.max, l.window, now)
}

// Sweep drops buckets whose window has passed.
func (l *Limiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.expired(now) {
			delete(l.buckets, key)
		}
	}
}

// Janitor sweeps every window until ctx is done.
func (l *Limiter) Janitor(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Middleware rejects requests over the limit with a JSON 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			response.TooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
