package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Encode results
const (
	ResultEncoded = "encoded"
	ResultSkipped = "skipped"
)

// Grant kinds
const (
	GrantShim = "shim"
	GrantStub = "stub"
)

// Injection outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	EncodesTotal    *prometheus.CounterVec
	StagesTotal     *prometheus.CounterVec
	GrantsTotal     *prometheus.CounterVec
	PayloadBytes    prometheus.Histogram
	InjectionsTotal *prometheus.CounterVec
}

// NewMetrics creates a metrics collector registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EncodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptenc_encodes_total",
				Help: "Total number of encode calls by result",
			},
			[]string{"result"},
		),
		StagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptenc_stages_total",
				Help: "Pipeline stages applied to payloads",
			},
			[]string{"stage"},
		),
		GrantsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptenc_grants_total",
				Help: "Granted capabilities by binding kind",
			},
			[]string{"kind"},
		),
		PayloadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scriptenc_payload_bytes",
				Help:    "Size of encoded payloads in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
		InjectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scriptenc_injections_total",
				Help: "Script deliveries by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordEncode records one encode call
func (m *Metrics) RecordEncode(result string, payloadBytes int) {
	if m == nil {
		return
	}
	m.EncodesTotal.WithLabelValues(result).Inc()
	if result == ResultEncoded {
		m.PayloadBytes.Observe(float64(payloadBytes))
	}
}

// RecordStage records a pipeline stage that changed the payload
func (m *Metrics) RecordStage(stage string) {
	if m == nil {
		return
	}
	m.StagesTotal.WithLabelValues(stage).Inc()
}

// RecordGrant records one granted capability
func (m *Metrics) RecordGrant(kind string) {
	if m == nil {
		return
	}
	m.GrantsTotal.WithLabelValues(kind).Inc()
}

// RecordInjection records one delivery attempt
func (m *Metrics) RecordInjection(outcome string) {
	if m == nil {
		return
	}
	m.InjectionsTotal.WithLabelValues(outcome).Inc()
}
