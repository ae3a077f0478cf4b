package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the hookbridge gateway.
type Metrics struct {
	DeliveryTotal        *prometheus.CounterVec
	DeliveryDurationMs   *prometheus.HistogramVec
	BackendDurationMs    *prometheus.HistogramVec
	ShortCircuitTotal    *prometheus.CounterVec
	RateLimitHitTotal    *prometheus.CounterVec
	CallbackAttemptTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		DeliveryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbridge_delivery_total",
			Help: "Total number of webhook deliveries processed by the gateway.",
		}, []string{"mode", "status"}),

		DeliveryDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hookbridge_delivery_duration_ms",
			Help:    "Total delivery duration in milliseconds (including backend latency).",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"mode"}),

		BackendDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hookbridge_backend_duration_ms",
			Help:    "Backend invocation duration in milliseconds.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"mode"}),

		ShortCircuitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbridge_middleware_short_circuit_total",
			Help: "Total pipeline short-circuits produced by middleware.",
		}, []string{"middleware", "status"}),

		RateLimitHitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbridge_ratelimit_hit_total",
			Help: "Total requests rejected by rate limiting.",
		}, []string{"dimension"}),

		CallbackAttemptTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbridge_callback_attempt_total",
			Help: "Total callback delivery attempts.",
		}, []string{"outcome"}),
	}
}

// RecordDelivery records metrics for one completed delivery.
func (m *Metrics) RecordDelivery(mode, status string, durationMs, backendMs float64) {
	m.DeliveryTotal.WithLabelValues(mode, status).Inc()
	m.DeliveryDurationMs.WithLabelValues(mode).Observe(durationMs)
	if backendMs > 0 {
		m.BackendDurationMs.WithLabelValues(mode).Observe(backendMs)
	}
}

// RecordShortCircuit records a middleware short-circuit.
func (m *Metrics) RecordShortCircuit(middleware, status string) {
	m.ShortCircuitTotal.WithLabelValues(middleware, status).Inc()
}

// RecordRateLimitHit records a rate limit rejection.
func (m *Metrics) RecordRateLimitHit(dimension string) {
	m.RateLimitHitTotal.WithLabelValues(dimension).Inc()
}

// RecordCallback records a callback attempt outcome ("delivered" or "failed").
func (m *Metrics) RecordCallback(outcome string) {
	m.CallbackAttemptTotal.WithLabelValues(outcome).Inc()
}
