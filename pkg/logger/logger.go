// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns a logger already tagged with the request ID carried by
// the context, so every line written while talking to the backend can be
// correlated with the X-Request-ID header that went out:
//
//	log := logger.WithCtx(ctx)
//	log.Info("cart synced", "email", email, "lines", n)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/recordshop/config"
)

var L *slog.Logger

func init() {
	L = slog.New(newHandler(os.Stderr))
	slog.SetDefault(L)
}

func newHandler(w io.Writer) slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Use replaces the base logger. The CLI calls it to fan out to MongoDB or to
// silence output; tests call it to capture lines.
func Use(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

// Discard silences all logging.
func Discard() {
	Use(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
