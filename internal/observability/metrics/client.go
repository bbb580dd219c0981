package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// ClientMetrics is the single private registry of the reconciliation client.
type ClientMetrics struct {
	registry *prometheus.Registry
	service  string

	backendRequestsTotal   *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec
	backendInFlight        *prometheus.GaugeVec
	breakerState           *prometheus.GaugeVec
	sessionTransitions     *prometheus.CounterVec
	reportExports          *prometheus.CounterVec

	opsRequestTotal    *prometheus.CounterVec
	opsRequestDuration *prometheus.HistogramVec
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()

	backendRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gst",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total backend calls by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	backendRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gst",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)
	backendInFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gst",
			Subsystem: "backend",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight backend calls.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gst",
			Subsystem: "backend",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	sessionTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gst",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total session state transitions by target phase.",
		},
		[]string{"service", "phase"},
	)
	reportExports := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gst",
			Subsystem: "report",
			Name:      "exports_total",
			Help:      "Total report exports by format and status.",
		},
		[]string{"service", "format", "status"},
	)
	opsRequestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gst",
			Subsystem: "ops_http",
			Name:      "requests_total",
			Help:      "Total ops HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	opsRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gst",
			Subsystem: "ops_http",
			Name:      "request_duration_seconds",
			Help:      "Ops HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	registry.MustRegister(
		backendRequestsTotal,
		backendRequestDuration,
		backendInFlight,
		breakerState,
		sessionTransitions,
		reportExports,
		opsRequestTotal,
		opsRequestDuration,
	)

	return &ClientMetrics{
		registry:               registry,
		service:                service,
		backendRequestsTotal:   backendRequestsTotal,
		backendRequestDuration: backendRequestDuration,
		backendInFlight:        backendInFlight,
		breakerState:           breakerState,
		sessionTransitions:     sessionTransitions,
		reportExports:          reportExports,
		opsRequestTotal:        opsRequestTotal,
		opsRequestDuration:     opsRequestDuration,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ClientMetrics) ObserveBackendRequest(operation, outcome string, elapsed time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.backendRequestsTotal.WithLabelValues(m.service, operation, outcome).Inc()
	m.backendRequestDuration.WithLabelValues(m.service, operation).Observe(elapsed.Seconds())
}

func (m *ClientMetrics) TrackBackendInFlight(operation string) func() {
	gauge := m.backendInFlight.WithLabelValues(m.service, operation)
	gauge.Inc()
	return gauge.Dec
}

func (m *ClientMetrics) ObserveBreakerState(operation string, _ gobreaker.State, to gobreaker.State) {
	var value float64
	switch to {
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}

func (m *ClientMetrics) RecordSessionTransition(phase domain.SessionPhase) {
	m.sessionTransitions.WithLabelValues(m.service, string(phase)).Inc()
}

func (m *ClientMetrics) RecordReportExport(format, status string) {
	if status == "" {
		status = "unknown"
	}
	m.reportExports.WithLabelValues(m.service, format, status).Inc()
}
