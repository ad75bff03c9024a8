package routing

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RouteMetrics holds the Prometheus collectors of the route service.
// All metrics are namespaced "energy_routing".
type RouteMetrics struct {
	requests   *prometheus.CounterVec   // labels: algorithm, code
	latency    *prometheus.HistogramVec // labels: algorithm
	pathsFound prometheus.Histogram
	iterations prometheus.Histogram
	inflight   prometheus.Gauge

	served atomic.Uint64
	failed atomic.Uint64
}

// NewRouteMetrics registers the collectors on registry, or on the default
// registerer when registry is nil
func NewRouteMetrics(registry prometheus.Registerer) *RouteMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &RouteMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "energy_routing",
			Name:      "requests_total",
			Help:      "Route requests by algorithm and result code",
		}, []string{"algorithm", "code"}), // code: OK or a protocol error code
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "energy_routing",
			Name:      "compute_latency_ms",
			Help:      "Time spent computing routes, in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"algorithm"}),
		pathsFound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "energy_routing",
			Name:      "paths_found",
			Help:      "Number of paths returned per successful request",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "energy_routing",
			Name:      "search_iterations",
			Help:      "Candidate pops per successful request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "energy_routing",
			Name:      "inflight_requests",
			Help:      "Route requests currently being computed",
		}),
	}
}

func (m *RouteMetrics) observe(algorithm, code string, elapsed time.Duration, paths, iterations int) {
	m.requests.WithLabelValues(algorithm, code).Inc()
	m.latency.WithLabelValues(algorithm).Observe(float64(elapsed.Microseconds()) / 1000)
	if code == "OK" {
		m.served.Add(1)
		m.pathsFound.Observe(float64(paths))
		m.iterations.Observe(float64(iterations))
		return
	}
	m.failed.Add(1)
}

// Served and Failed count requests since start, for the status report
func (m *RouteMetrics) Served() uint64 { return m.served.Load() }

func (m *RouteMetrics) Failed() uint64 { return m.failed.Load() }
