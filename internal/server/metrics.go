package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joshharrison/netplanner/internal/engine"
)

// Metrics holds the Prometheus collectors for schedule computations.
type Metrics struct {
	computations *prometheus.CounterVec
	duration     prometheus.Histogram
	activities   prometheus.Histogram
}

// NewMetrics registers the computation collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: outcome (ok, invalid)
		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netplanner",
			Name:      "computations_total",
			Help:      "Total schedule computations by outcome",
		}, []string{"outcome"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netplanner",
			Name:      "compute_duration_seconds",
			Help:      "Time spent in schedule computation",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		activities: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netplanner",
			Name:      "activities_per_compute",
			Help:      "Number of activities submitted per computation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) observe(n int, res *engine.Result, elapsed time.Duration) {
	outcome := "ok"
	if !res.OK() {
		outcome = "invalid"
	}
	m.computations.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.activities.Observe(float64(n))
}
