package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "myapp"

// Outcome labels for backend calls
const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// Metrics holds the Prometheus collectors for the frontend
type Metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
}

// New registers the collectors with the given registerer.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of calls made to the auth backend",
		}, []string{"operation", "outcome"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Auth backend call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_sessions_active",
			Help:      "Number of browser sessions currently held in memory",
		}),
	}
}

// ObserveBackendCall records one backend call. A nil receiver is a no-op.
func (m *Metrics) ObserveBackendCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(operation, outcome).Inc()
	m.backendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetActiveSessions updates the browser session gauge
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
