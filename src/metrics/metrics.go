package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives key registry events
type Recorder interface {
	IncrementKeysGenerated(keyType string)
	IncrementKeysDeactivated()
	RecordValidation(status string)
	RecordStoreError(operation string)
	SetActiveKeys(n int)
}

type NoopMetrics struct{}

func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) IncrementKeysGenerated(keyType string) {}

func (n *NoopMetrics) IncrementKeysDeactivated() {}

func (n *NoopMetrics) RecordValidation(status string) {}

func (n *NoopMetrics) RecordStoreError(operation string) {}

func (n *NoopMetrics) SetActiveKeys(int) {}

type PrometheusMetrics struct {
	keysGenerated   *prometheus.CounterVec
	keysDeactivated prometheus.Counter
	validations     *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	activeKeys      prometheus.Gauge
}

// NewPrometheusMetrics registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		keysGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apikeys_generated_total",
			Help: "The total number of API keys generated",
		}, []string{"type"}), // type: "dev", "prod"

		keysDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "apikeys_deactivated_total",
			Help: "The total number of successful deactivations",
		}),

		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apikeys_validations_total",
			Help: "The total number of key validations by outcome",
		}, []string{"status"}), // status: "VALID", "INACTIVE", "INVALID", "error"

		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "apikeys_store_errors_total",
			Help: "The total number of failed store round-trips",
		}, []string{"operation"}),

		activeKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "apikeys_active",
			Help: "Number of active API keys at the last refresh",
		}),
	}
}

func (p *PrometheusMetrics) IncrementKeysGenerated(keyType string) {
	p.keysGenerated.WithLabelValues(keyType).Inc()
}

func (p *PrometheusMetrics) IncrementKeysDeactivated() {
	p.keysDeactivated.Inc()
}

func (p *PrometheusMetrics) RecordValidation(status string) {
	p.validations.WithLabelValues(status).Inc()
}

func (p *PrometheusMetrics) RecordStoreError(operation string) {
	p.storeErrors.WithLabelValues(operation).Inc()
}

func (p *PrometheusMetrics) SetActiveKeys(n int) {
	p.activeKeys.Set(float64(n))
}
