package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopLoggerDiscards(t *testing.T) {
	l := NewNoopLogger()
	require.NotPanics(t, func() {
		l.Debug(context.Background(), "msg", "k", "v")
		l.Info(context.Background(), "msg")
		l.Warn(context.Background(), "msg")
		l.Error(context.Background(), "msg")
	})
}

func TestNoopTracerReturnsSpan(t *testing.T) {
	tr := NewNoopTracer()
	ctx, span := tr.Start(context.Background(), "op")
	require.NotNil(t, span)
	require.Equal(t, context.Background(), ctx)
	span.End()
}

func TestFlattenTagsFormatsPairs(t *testing.T) {
	require.Equal(t, "", flattenTags(nil))
	require.Equal(t, "a=1", flattenTags([]string{"a", "1"}))
	require.Equal(t, "a=1,b=2", flattenTags([]string{"a", "1", "b", "2"}))
}

func TestPrometheusMetricsRecordsWithoutPanicking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)
	require.NotPanics(t, func() {
		m.IncCounter("kurral_test_total", 1, "status", "ok")
		m.RecordTimer("kurral_test_duration_seconds", 10*time.Millisecond, "status", "ok")
		m.RecordGauge("kurral_test_gauge", 3, "status", "ok")
	})
	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestPrometheusMetricsReusesInstrumentPerName(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg).(*PrometheusMetrics)
	m.IncCounter("kurral_reuse_total", 1)
	m.IncCounter("kurral_reuse_total", 2)
	require.Len(t, m.counters, 1)
}
