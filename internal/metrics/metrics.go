package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hamed0406/pingboard/internal/domain"
)

const namespace = "pingboard"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing, so tests can skip it.
type Metrics struct {
	probes        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	sweepDuration prometheus.Histogram
	sweepSize     *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "probe outcomes by status and method",
		}, []string{"status", "method"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_ms",
			Help:      "classified probe latency in milliseconds",
			// 5,10,20,40,...,1280
			Buckets: prometheus.ExponentialBuckets(5, 2, 9),
		}, []string{"method"}),

		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "wall time of a full sweep",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),

		sweepSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_endpoints",
			Help:      "endpoints in the last completed sweep by status",
		}, []string{"status"}),
	}
	reg.MustRegister(m.probes, m.latency, m.sweepDuration, m.sweepSize)
	return m
}

func (m *Metrics) ObserveOutcome(o domain.ProbeOutcome) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(string(o.Status), string(o.Method)).Inc()
	if o.LatencyMS != nil {
		m.latency.WithLabelValues(string(o.Method)).Observe(float64(*o.LatencyMS))
	}
}

func (m *Metrics) ObserveSweep(d time.Duration, successful, failed int) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
	m.sweepSize.WithLabelValues(string(domain.StatusSuccess)).Set(float64(successful))
	m.sweepSize.WithLabelValues(string(domain.StatusFailure)).Set(float64(failed))
}
