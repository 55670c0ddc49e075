package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordEncode(ResultEncoded, 128)
	m.RecordEncode(ResultSkipped, 0)
	m.RecordEncode(ResultEncoded, 64)
	m.RecordStage("lifecycle")
	m.RecordGrant(GrantShim)
	m.RecordGrant(GrantStub)
	m.RecordGrant(GrantStub)
	m.RecordInjection(OutcomeRejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues(ResultEncoded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagesTotal.WithLabelValues("lifecycle")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GrantsTotal.WithLabelValues(GrantStub)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InjectionsTotal.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PayloadBytes))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordEncode(ResultEncoded, 1)
	m.RecordStage("imports")
	m.RecordGrant(GrantShim)
	m.RecordInjection(OutcomeDelivered)
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
