// Package sse writes Server-Sent Events.
//
//	stream, err := sse.New(w, r)
//	if err != nil {
//	    return
//	}
//	_ = sse.Pump(r.Context(), stream, "stock", sub.C(), 15*time.Second)
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnsupported is returned when the response writer cannot flush.
var ErrUnsupported = errors.New("sse: streaming unsupported")

// Stream is one open event stream.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	done    <-chan struct{}
	seq     int
}

// New sets the event-stream headers and flushes them. On a writer that
// cannot flush it answers 500 and returns ErrUnsupported.
func New(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, ErrUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher, done: r.Context().Done()}, nil
}

// Send writes a named event with a JSON payload and a monotonically
// increasing id.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	s.seq++
	return s.write("id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload)
}

// Comment writes a comment line. Clients ignore it; proxies see traffic.
func (s *Stream) Comment(msg string) error {
	return s.write(": %s\n\n", msg)
}

// Closed reports whether the client went away.
func (s *Stream) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Stream) write(format string, args ...any) error {
	if s.Closed() {
		return context.Canceled
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Pump forwards every value from ch as an event until ctx is done, ch is
// closed or a write fails. A heartbeat comment goes out when nothing else
// was sent for one interval; zero disables it.
func Pump[T any](ctx context.Context, s *Stream, event string, ch <-chan T, heartbeat time.Duration) error {
	var tick <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Send(event, v); err != nil {
				return err
			}
		case <-tick:
			if err := s.Comment("ping"); err != nil {
				return err
			}
		}
	}
}
