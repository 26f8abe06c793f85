package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics is a Metrics implementation backed by Prometheus
// CounterVec/HistogramVec/GaugeVec instruments created lazily, one per
// distinct metric name, with a "tags" label holding the flattened
// key1=value1,key2=value2 tag string (Prometheus requires a fixed label
// set per metric name, which the variadic tags... signature does not
// guarantee).
type PrometheusMetrics struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusMetrics constructs a Metrics recorder registered against reg
// (prometheus.DefaultRegisterer if nil).
func NewPrometheusMetrics(reg prometheus.Registerer) Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusMetrics{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func flattenTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	out := make([]byte, 0, 32)
	for i := 0; i < len(tags); i += 2 {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, tags[i]...)
		out = append(out, '=')
		if i+1 < len(tags) {
			out = append(out, tags[i+1]...)
		}
	}
	return string(out)
}

func (m *PrometheusMetrics) counterFor(name string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		c = promauto.With(m.registerer).NewCounterVec(prometheus.CounterOpts{Name: name}, []string{"tags"})
		m.counters[name] = c
	}
	return c
}

func (m *PrometheusMetrics) histogramFor(name string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.histograms[name]
	if !ok {
		h = promauto.With(m.registerer).NewHistogramVec(prometheus.HistogramOpts{Name: name}, []string{"tags"})
		m.histograms[name] = h
	}
	return h
}

func (m *PrometheusMetrics) gaugeFor(name string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gauges[name]
	if !ok {
		g = promauto.With(m.registerer).NewGaugeVec(prometheus.GaugeOpts{Name: name}, []string{"tags"})
		m.gauges[name] = g
	}
	return g
}

// IncCounter increments a counter metric by the given value.
func (m *PrometheusMetrics) IncCounter(name string, value float64, tags ...string) {
	m.counterFor(name).WithLabelValues(flattenTags(tags)).Add(value)
}

// RecordTimer records a duration histogram/timer metric, in seconds.
func (m *PrometheusMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	m.histogramFor(name).WithLabelValues(flattenTags(tags)).Observe(duration.Seconds())
}

// RecordGauge records a gauge metric value.
func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags ...string) {
	m.gaugeFor(name).WithLabelValues(flattenTags(tags)).Set(value)
}
