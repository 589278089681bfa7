package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations  *prometheus.CounterVec
	candidates    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	selectedScore *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_observations_total",
				Help: "Total number of observations routed to a backend",
			},
			[]string{"backend", "product"},
		),
		candidates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_search_candidates_total",
				Help: "Model candidates by family and outcome",
			},
			[]string{"family", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		selectedScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_selected_model_score",
				Help: "Validation score of the currently selected model",
			},
			[]string{"family"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records an observation routed to a backend.
func (r *Recorder) RecordObservation(backend, productID string) {
	r.observations.WithLabelValues(backend, productID).Inc()
}

// RecordCandidate records a search candidate outcome.
func (r *Recorder) RecordCandidate(family, result string) {
	r.candidates.WithLabelValues(family, result).Inc()
}

// RecordSelectedScore records the winning model's validation score.
func (r *Recorder) RecordSelectedScore(family string, score float64) {
	r.selectedScore.WithLabelValues(family).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
