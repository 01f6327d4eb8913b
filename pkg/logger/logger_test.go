package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/recordshop/pkg/logger"
)

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, logger.L, logger.WithCtx(context.Background()))
}

func TestInjectLogger(t *testing.T) {
	var buf bytes.Buffer
	tagged := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")
	ctx := logger.InjectLogger(context.Background(), tagged)

	logger.WithCtx(ctx).Info("cart synced")
	assert.Contains(t, buf.String(), "request_id=abc")
	assert.Contains(t, buf.String(), "cart synced")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := logger.NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	slog.New(h).With("email", "ana@example.com").Info("added")

	assert.Contains(t, a.String(), "email=ana@example.com")
	assert.Contains(t, b.String(), `"email":"ana@example.com"`)
}
