// Package metrics provides Prometheus instrumentation for recordshop.
//
// The client records every backend call, every stock broadcast and the
// current cart figures. The feed server exposes them on GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestDuration tracks backend call latency by logical endpoint.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recordshop",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestTotal counts backend calls. status is "error" when the
	// call never produced a response.
	APIRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordshop",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend API calls.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// StockEvents counts Stock Notifier broadcasts.
	StockEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "recordshop",
		Subsystem: "stock",
		Name:      "events_total",
		Help:      "Stock updates broadcast to subscribers.",
	})

	// StockDropped counts events a slow subscriber missed.
	StockDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "recordshop",
		Subsystem: "stock",
		Name:      "dropped_total",
		Help:      "Stock updates dropped because a subscriber buffer was full.",
	})

	// CartItems and CartTotal mirror the published cart state.
	CartItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recordshop",
		Subsystem: "cart",
		Name:      "items",
		Help:      "Number of items in the current user's cart.",
	})
	CartTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recordshop",
		Subsystem: "cart",
		Name:      "total",
		Help:      "Total price of the current user's cart.",
	})

	// CartSyncs counts resyncs by outcome.
	CartSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordshop",
			Subsystem: "cart",
			Name:      "syncs_total",
			Help:      "Cart resyncs against the backend.",
		},
		[]string{"result"}, // "ok" | "error"
	)

	// StateOps counts local state store operations by driver.
	StateOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recordshop",
			Subsystem: "state",
			Name:      "operations_total",
			Help:      "Local state store operations.",
		},
		[]string{"driver", "op"},
	)
)

// DefaultRegistry is the Prometheus registry used by recordshop.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		APIRequestDuration,
		APIRequestTotal,
		StockEvents,
		StockDropped,
		CartItems,
		CartTotal,
		CartSyncs,
		StateOps,
	)
}

// ObserveAPI records one backend call. status 0 means no response.
func ObserveAPI(method, endpoint string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	APIRequestDuration.WithLabelValues(method, endpoint, label).Observe(time.Since(start).Seconds())
	APIRequestTotal.WithLabelValues(method, endpoint, label).Inc()
}

// SetCart publishes the current cart figures.
func SetCart(items int, total float64) {
	CartItems.Set(float64(items))
	CartTotal.Set(total)
}

// Handler exposes the registry in Prometheus text and OpenMetrics formats.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
