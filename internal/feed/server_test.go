package feed_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/feed"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/stock"
	"github.com/shashiranjanraj/recordshop/pkg/event"
	"github.com/shashiranjanraj/recordshop/pkg/middleware"
)

type fakeCart struct {
	*event.Value[models.CartState]
}

func (f fakeCart) Current() models.CartState { return f.Get() }

type fixture struct {
	stock *stock.Notifier
	cart  fakeCart
	feed  *feed.Server
	srv   *httptest.Server
}

func newFixture(t *testing.T, limiter *middleware.Limiter) *fixture {
	t.Helper()
	f := &fixture{
		stock: stock.NewNotifier(0),
		cart: fakeCart{event.NewValue(models.CartState{
			Email:   "ann@example.com",
			Lines:   []models.CartLine{{RecordID: 7, Title: "Kind of Blue", Price: 10, Quantity: 2, InCart: true}},
			Total:   20,
			Enabled: true,
		})},
	}
	f.feed = feed.New(feed.Options{Stock: f.stock, Cart: f.cart, Limiter: limiter})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.feed.Start(ctx)

	f.srv = httptest.NewServer(f.feed.Handler())
	t.Cleanup(f.srv.Close)
	return f
}

// nextEvent reads one SSE event and returns its name and data.
func nextEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			return name, strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	// The websocket forwarder holds one subscription.
	assert.EqualValues(t, 1, body["stockSubscribers"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "rid-1", resp.Header.Get(middleware.HeaderRequestID))
}

func TestCartServesCurrentState(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/cart")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got models.CartState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, f.cart.Current(), got)
}

func TestCartEventsStartWithCurrentState(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/cart/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	name, data := nextEvent(t, r)
	assert.Equal(t, "cart", name)
	assert.Contains(t, data, `"email":"ann@example.com"`)

	f.cart.Set(models.CartState{Email: "ann@example.com", Lines: []models.CartLine{}, Enabled: false})
	_, data = nextEvent(t, r)
	assert.Contains(t, data, `"enabled":false`)
}

func TestStockEventsForwardUpdates(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/stock/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	f.stock.Notify(7, 2)

	name, data := nextEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "stock", name)
	assert.JSONEq(t, `{"recordId":7,"newStock":2}`, data)
}

func TestStockWebsocketReceivesUpdates(t *testing.T) {
	f := newFixture(t, nil)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/stock/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.feed.Clients() == 1 }, time.Second, 10*time.Millisecond)

	f.stock.Notify(3, 9)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u stock.Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, stock.Update{RecordID: 3, NewStock: 9}, u)
}

func TestStreamsAreRateLimited(t *testing.T) {
	f := newFixture(t, middleware.NewLimiter(1, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/stock/events", nil)
	require.NoError(t, err)
	first, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	cancel()
	first.Body.Close()

	second, err := http.Get(f.srv.URL + "/stock/events")
	require.NoError(t, err)
	defer second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	plain, err := http.Get(f.srv.URL + "/cart")
	require.NoError(t, err)
	defer plain.Body.Close()
	assert.Equal(t, http.StatusOK, plain.StatusCode, "non-stream routes are not limited")
}

func TestPreflightIsAnswered(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/cart", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsAndRoutes(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var names []string
	for _, r := range f.feed.Routes() {
		names = append(names, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /cart",
		"GET /cart/events",
		"GET /healthz",
		"GET /metrics",
		"GET /stock/events",
		"GET /stock/ws",
	}, names)
}
