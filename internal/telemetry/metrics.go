package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry    *prometheus.Registry
	handler     http.Handler
	rpcDuration *prometheus.HistogramVec
	rpcTotal    *prometheus.CounterVec
	bookings    *prometheus.CounterVec
	freeSlots   prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	rpcDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calbook",
		Name:      "rpc_duration_seconds",
		Help:      "Duration of unary gRPC calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})

	rpcTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calbook",
		Name:      "rpc_requests_total",
		Help:      "Unary gRPC calls by method and status code.",
	}, []string{"method", "code"})

	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calbook",
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	freeSlots := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "calbook",
		Name:      "free_slots_per_query",
		Help:      "Number of free slots returned by one free-slot query.",
		Buckets:   prometheus.LinearBuckets(0, 5, 10),
	})

	registry.MustRegister(
		rpcDuration,
		rpcTotal,
		bookings,
		freeSlots,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:    registry,
		handler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		rpcDuration: rpcDuration,
		rpcTotal:    rpcTotal,
		bookings:    bookings,
		freeSlots:   freeSlots,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRPC(method, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(method, code).Observe(elapsed.Seconds())
	m.rpcTotal.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFreeSlots(n int) {
	if m == nil {
		return
	}
	m.freeSlots.Observe(float64(n))
}
