// Package metrics exposes Prometheus collectors for the ranking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRankingRequests   = "ranking_requests_total"
	MetricRankingDuration   = "ranking_duration_seconds"
	MetricRankingDegenerate = "ranking_degenerate_inputs_total"
	MetricRankingErrors     = "ranking_errors_total"
)

// Request kinds.
const (
	KindMovies  = "movies"
	KindReviews = "reviews"
	KindScore   = "score"
)

// Metrics holds the ranking collectors. All methods are safe for concurrent
// use and tolerate a nil receiver so callers can run without instrumentation.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	degenerate prometheus.Counter
	errors     *prometheus.CounterVec
}

// New creates unregistered collectors; call Register to expose them.
func New() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankingRequests,
			Help: "Total number of ranking computations by kind and strategy",
		}, []string{"kind", "strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRankingDuration,
			Help:    "Histogram of ranking computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind"}),
		degenerate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankingDegenerate,
			Help: "Number of rescales whose input values were all equal",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankingErrors,
			Help: "Total number of failed ranking computations by kind",
		}, []string{"kind"}),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.degenerate, m.errors}
}

// ObserveRequest counts one ranking computation and records its duration.
func (m *Metrics) ObserveRequest(kind, strategy string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, strategy).Inc()
	m.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// IncErrors counts a failed ranking computation.
func (m *Metrics) IncErrors(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// IncDegenerate counts a rescale over identical values.
func (m *Metrics) IncDegenerate() {
	if m == nil {
		return
	}
	m.degenerate.Inc()
}
