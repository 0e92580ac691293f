package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	processed   *prometheus.CounterVec
	routed      *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		processed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volapulse_messages_processed_total",
				Help: "Total messages handled by the pipeline, by ack outcome",
			},
			[]string{"symbol", "outcome"},
		),
		routed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volapulse_results_routed_total",
				Help: "Total analysis results routed to an output sink",
			},
			[]string{"mode", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volapulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volapulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordProcessed records a pipeline outcome for a message.
func (r *Recorder) RecordProcessed(symbol, outcome string) {
	r.processed.WithLabelValues(symbol, outcome).Inc()
}

// RecordRouted records a result delivered to an output sink.
func (r *Recorder) RecordRouted(mode, symbol string) {
	r.routed.WithLabelValues(mode, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
