// Package reqid generates request IDs and carries them through contexts.
//
// Every outgoing backend call gets an X-Request-ID header; the same ID is
// attached to the log lines written for that call so client logs and
// server logs can be joined.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is the HTTP header name used to propagate the request ID.
const Header = "X-Request-ID"

// New generates a random UUIDv4 request ID.
func New() string {
	return uuid.NewString()
}

// WithValue stores id in ctx and returns the new context.
func WithValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromCtx extracts the request ID from ctx, or "" when none is present.
func FromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Ensure returns ctx unchanged when it already carries an ID, otherwise a
// child context with a fresh one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromCtx(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return WithValue(ctx, id), id
}
