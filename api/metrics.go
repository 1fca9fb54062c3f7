package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/loyalty-engine/loyalty"
)

// Metrics holds the server's Prometheus collectors. Each instance owns its
// registry so several servers (or tests) can coexist in one process. All
// methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	simulations     *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duration        prometheus.Histogram
	monthsSimulated prometheus.Histogram
	requests        *prometheus.CounterVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tiersim",
				Name:      "simulations_total",
				Help:      "Completed simulations by origin and final tier.",
			},
			[]string{"origin", "final_tier"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tiersim",
				Name:      "simulation_failures_total",
				Help:      "Rejected or failed simulations by reason.",
			},
			[]string{"reason"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tiersim",
				Name:      "simulation_duration_seconds",
				Help:      "Wall time of one simulation run.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		monthsSimulated: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "tiersim",
				Name:      "simulated_months",
				Help:      "Snapshots produced per simulation.",
				Buckets:   []float64{6, 12, 24, 48, 81, 120, 240, 600, 1200},
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tiersim",
				Name:      "http_requests_total",
				Help:      "HTTP requests by method and status code.",
			},
			[]string{"method", "code"},
		),
	}

	m.registry.MustRegister(
		m.simulations,
		m.failures,
		m.duration,
		m.monthsSimulated,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSimulation records one successful run.
func (m *Metrics) ObserveSimulation(origin string, result *loyalty.SimulationResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.simulations.WithLabelValues(origin, result.FinalTier().String()).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.monthsSimulated.Observe(float64(len(result.Snapshots)))
}

// ObserveFailure records a rejected request or failed run.
func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

// ObserveRequest records one HTTP response.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
