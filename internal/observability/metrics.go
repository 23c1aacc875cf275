package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translate_gateway_active_sessions",
		Help: "Number of active realtime translation sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_gateway_sessions_total",
		Help: "Total number of sessions processed",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_gateway_session_duration_seconds",
		Help:    "Duration of realtime sessions in seconds",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
	})

	// Event stream metrics
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_events_total",
		Help: "Total number of realtime server events consumed",
	}, []string{"type"})

	// Translation metrics
	translationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_translation_requests_total",
		Help: "Total number of translation requests by outcome",
	}, []string{"status"})

	translationSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_translation_skips_total",
		Help: "Translation dispatches short-circuited before the collaborator call",
	}, []string{"reason"})

	translationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_gateway_translation_latency_seconds",
		Help:    "Translation collaborator round-trip latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Pair state machine metrics
	pairTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_pair_transitions_total",
		Help: "Language pair state machine transitions",
	}, []string{"transition"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "translate_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single realtime session.
type Metrics struct {
	sessionID string
	startTime time.Time
}

// NewSessionMetrics creates a metrics tracker for one session.
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session.
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session.
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordEvent counts one consumed realtime server event.
func (m *Metrics) RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordTranslationStart marks the start of a collaborator round trip. The
// returned start time is handed back to RecordTranslationEnd so overlapping
// dispatches each measure their own latency.
func (m *Metrics) RecordTranslationStart() time.Time {
	return time.Now()
}

// RecordTranslationEnd records the outcome and latency of a round trip.
func (m *Metrics) RecordTranslationEnd(start time.Time, success bool) {
	if !start.IsZero() {
		translationLatency.Observe(time.Since(start).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	translationRequests.WithLabelValues(status).Inc()
}

// RecordSkip counts a dispatch short-circuited before the collaborator.
func (m *Metrics) RecordSkip(reason string) {
	translationSkips.WithLabelValues(reason).Inc()
}

// RecordPairTransition counts a language pair state machine transition.
func (m *Metrics) RecordPairTransition(transition string) {
	pairTransitions.WithLabelValues(transition).Inc()
}

// RecordError records an error.
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric.
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments the failure counter.
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
