// Package telemetry exposes Prometheus metrics and OpenTelemetry spans for the
// enrollment service.
package telemetry

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	StepTransitions    *prometheus.CounterVec
	BlockedTransitions *prometheus.CounterVec
	FatalErrors        *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ActiveSessions     prometheus.Gauge
	BackendLatency     *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StepTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_step_transitions_total",
			Help: "Wizard step transitions, labeled by source and target step",
		}, []string{"from", "to"}),
		BlockedTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_blocked_transitions_total",
			Help: "Forward transitions refused by a guard, labeled by step and reason",
		}, []string{"step", "reason"}),
		FatalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_fatal_errors_total",
			Help: "Sessions routed to the error page, labeled by step",
		}, []string{"step"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_submissions_total",
			Help: "Completed enrollments, labeled by consent category",
		}, []string{"category"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "enrollment_active_sessions",
			Help: "Number of live wizard sessions",
		}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enrollment_backend_call_duration_seconds",
			Help:    "Latency of backend calls made by the wizard",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) StepAdvanced(from, to string) {
	m.StepTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) TransitionBlocked(step, reason string) {
	m.BlockedTransitions.WithLabelValues(step, reason).Inc()
}

func (m *Metrics) SessionFailed(step string) {
	m.FatalErrors.WithLabelValues(step).Inc()
}

func (m *Metrics) SubmissionCompleted(category string) {
	m.Submissions.WithLabelValues(category).Inc()
}

func (m *Metrics) SessionsActive(n int) {
	m.ActiveSessions.Set(float64(n))
}

// ObserveBackendCall records the latency of op since start.
func (m *Metrics) ObserveBackendCall(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BackendLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
