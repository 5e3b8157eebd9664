package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	IntakesSubmitted   prometheus.Counter
	SubmissionFailures *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	BackendLatency     *prometheus.HistogramVec
	ScreenerLookups    *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IntakesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_intakes_submitted_total",
			Help: "Total number of intakes successfully submitted to the backend",
		}),
		SubmissionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_submission_failures_total",
			Help: "Submission failures by reason (network, rejected)",
		}, []string{"reason"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_validation_failures_total",
			Help: "Wizard step validation failures by step",
		}, []string{"step"}),
		BackendLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_backend_request_duration_seconds",
			Help:    "Latency of calls to external collaborators",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		ScreenerLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_screener_lookups_total",
			Help: "Screener display-name lookups by outcome (hit, miss)",
		}, []string{"outcome"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveBackend records one external call.
func (m *Metrics) ObserveBackend(service, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(service, operation).Observe(d.Seconds())
}

// IncValidationFailure records a blocked step advancement.
func (m *Metrics) IncValidationFailure(step string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(step).Inc()
}

// IncSubmitted records a successful submission.
func (m *Metrics) IncSubmitted() {
	if m == nil {
		return
	}
	m.IntakesSubmitted.Inc()
}

// IncSubmissionFailure records a failed submission.
func (m *Metrics) IncSubmissionFailure(reason string) {
	if m == nil {
		return
	}
	m.SubmissionFailures.WithLabelValues(reason).Inc()
}

// IncScreenerLookup records a screener name lookup outcome.
func (m *Metrics) IncScreenerLookup(outcome string) {
	if m == nil {
		return
	}
	m.ScreenerLookups.WithLabelValues(outcome).Inc()
}
