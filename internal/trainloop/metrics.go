package trainloop

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsPrefix prefixes every metric name.
const MetricsPrefix = "updater_"

// Metrics records training loop progress.
type Metrics struct {
	coordinates  *prometheus.CounterVec
	steps        prometheus.Counter
	stepDuration prometheus.Histogram
	loss         prometheus.Gauge
}

// NewMetrics creates the loop metrics and registers them on reg. A nil reg
// creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		coordinates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "coordinates_updated_total",
				Help: "Number of coordinate updates applied, by update path",
			},
			[]string{"path"},
		),
		steps: factory.NewCounter(
			prometheus.CounterOpts{
				Name: MetricsPrefix + "steps_total",
				Help: "Number of dense training steps completed",
			},
		),
		stepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricsPrefix + "step_duration_seconds",
				Help:    "Time taken by one dense training step",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		loss: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricsPrefix + "loss",
				Help: "Objective value (including regularization) before the latest step",
			},
		),
	}
}

// RecordBatch counts n coordinates updated through BatchUpdate.
func (m *Metrics) RecordBatch(n int) {
	m.coordinates.WithLabelValues("batch").Add(float64(n))
}

// RecordScalar counts n coordinates updated through Update.
func (m *Metrics) RecordScalar(n int) {
	m.coordinates.WithLabelValues("scalar").Add(float64(n))
}

// RecordStep records one completed dense step.
func (m *Metrics) RecordStep(duration time.Duration, loss float64) {
	m.steps.Inc()
	m.stepDuration.Observe(duration.Seconds())
	m.loss.Set(loss)
}
