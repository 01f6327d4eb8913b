package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/pkg/telemetry"
)

func TestSetupRejectsUnknownExporter(t *testing.T) {
	_, err := telemetry.Setup(context.Background(), "test", "carrier-pigeon")
	assert.Error(t, err)
}

func TestTransportPropagatesTraceContext(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "test", "")
	require.NoError(t, err)
	defer shutdown(context.Background()) //nolint:errcheck

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, span := telemetry.Start(context.Background(), "cart.resync")
	defer span.End()

	client := &http.Client{Transport: telemetry.Transport(nil)}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, traceparent)
}
