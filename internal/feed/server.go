// Package feed serves live storefront state over HTTP: stock changes as
// Server-Sent Events and websocket messages, the signed-in cart as JSON
// and as an event stream, and the Prometheus registry.
package feed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/stock"
	"github.com/shashiranjanraj/recordshop/pkg/event"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/metrics"
	"github.com/shashiranjanraj/recordshop/pkg/middleware"
	"github.com/shashiranjanraj/recordshop/pkg/response"
	"github.com/shashiranjanraj/recordshop/pkg/router"
	"github.com/shashiranjanraj/recordshop/pkg/sse"
	"github.com/shashiranjanraj/recordshop/pkg/ws"
)

const (
	defaultHeartbeat = 15 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// StockSource is the stock notifier as seen by the feed.
type StockSource interface {
	Subscribe() *event.Subscription[stock.Update]
	Subscribers() int
}

// CartSource is the cart store as seen by the feed. Subscribe must hand
// the current state to a new subscriber first.
type CartSource interface {
	Current() models.CartState
	Subscribe() *event.Subscription[models.CartState]
}

type Options struct {
	Stock StockSource
	Cart  CartSource

	// Heartbeat is the idle interval between SSE keepalive comments.
	Heartbeat time.Duration
	// Limiter guards the streaming endpoints. Nil disables it.
	Limiter *middleware.Limiter
	// Origins may read the feed from a browser. Empty allows any origin.
	Origins []string
}

type Server struct {
	opts   Options
	router *router.Router
	hub    *ws.Hub

	startOnce sync.Once
}

func New(o Options) *Server {
	if o.Heartbeat <= 0 {
		o.Heartbeat = defaultHeartbeat
	}
	s := &Server{opts: o, router: router.New(), hub: ws.NewHub()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger,
		middleware.CORS(s.opts.Origins...),
	)

	r.Get("/healthz", "health", s.health)
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/cart", "cart.show", s.cart)

	var streams []router.Middleware
	if s.opts.Limiter != nil {
		streams = append(streams, s.opts.Limiter.Middleware)
	}
	r.Get("/cart/events", "cart.events", s.cartEvents, streams...)

	st := r.Group("/stock", streams...)
	st.Get("/events", "stock.events", s.stockEvents)
	st.Get("/ws", "stock.ws", s.hub.Upgrade)
}

// Handler returns the traced route tree.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router.Handler(), "feed")
}

// Routes lists the named routes.
func (s *Server) Routes() []router.RouteInfo { return s.router.Routes() }

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int { return s.hub.ClientCount() }

// Start runs the websocket hub and forwards stock updates into it until
// ctx is done. Run calls it; tests serving Handler directly call it too.
func (s *Server) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.hub.Run(ctx)
		if s.opts.Limiter != nil {
			go s.opts.Limiter.Janitor(ctx)
		}
		if s.opts.Stock == nil {
			return
		}
		sub := s.opts.Stock.Subscribe()
		go func() {
			defer sub.Unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case u, ok := <-sub.C():
					if !ok {
						return
					}
					if err := s.hub.Broadcast(u); err != nil {
						return
					}
				}
			}
		}()
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("feed: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	logger.Info("feed: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type healthBody struct {
	Status           string `json:"status"`
	StockSubscribers int    `json:"stockSubscribers"`
	SocketClients    int    `json:"socketClients"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	body := healthBody{Status: "ok", SocketClients: s.hub.ClientCount()}
	if s.opts.Stock != nil {
		body.StockSubscribers = s.opts.Stock.Subscribers()
	}
	response.JSON(w, http.StatusOK, body)
}

func (s *Server) cart(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Cart == nil {
		response.JSON(w, http.StatusOK, models.CartState{Lines: []models.CartLine{}, Enabled: true})
		return
	}
	response.JSON(w, http.StatusOK, s.opts.Cart.Current())
}

func (s *Server) cartEvents(w http.ResponseWriter, r *http.Request) {
	if s.opts.Cart == nil {
		response.NotFound(w)
		return
	}
	sub := s.opts.Cart.Subscribe()
	defer sub.Unsubscribe()
	stream(w, r, "cart", sub.C(), s.opts.Heartbeat)
}

func (s *Server) stockEvents(w http.ResponseWriter, r *http.Request) {
	if s.opts.Stock == nil {
		response.NotFound(w)
		return
	}
	sub := s.opts.Stock.Subscribe()
	defer sub.Unsubscribe()
	stream(w, r, "stock", sub.C(), s.opts.Heartbeat)
}

func stream[T any](w http.ResponseWriter, r *http.Request, name string, ch <-chan T, heartbeat time.Duration) {
	st, err := sse.New(w, r)
	if err != nil {
		return
	}
	err = sse.Pump(r.Context(), st, name, ch, heartbeat)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithCtx(r.Context()).Warn("feed: stream ended", "stream", name, "error", err)
	}
}
