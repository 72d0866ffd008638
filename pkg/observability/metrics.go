package observability

import (
	"net/http"
	"time"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Distribution sources reported by ObserveDistribution.
const (
	SourceComputed = "computed"
	SourceCache    = "cache"
	SourceRejected = "rejected"
)

// Metrics holds the collectors of one engine.
type Metrics struct {
	Rolls         prometheus.Counter
	Trials        prometheus.Counter
	RollValues    prometheus.Histogram
	Distributions *prometheus.CounterVec
	ExactDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Rolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dicetree_rolls_total",
			Help: "Total number of scalar rolls",
		}),
		Trials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dicetree_trials_total",
			Help: "Total number of simulated trials",
		}),
		RollValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dicetree_roll_value",
			Help:    "Values produced by scalar rolls",
			Buckets: prometheus.LinearBuckets(0, 5, 21),
		}),
		Distributions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicetree_distributions_total",
				Help: "Exact distribution requests by source",
			},
			[]string{"source"},
		),
		ExactDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dicetree_distribution_duration_seconds",
			Help:    "Time spent computing exact distributions",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Rolls, m.Trials, m.RollValues, m.Distributions, m.ExactDuration)
	return m
}

// ObserveRoll records one scalar roll.
func (m *Metrics) ObserveRoll(v int) {
	m.Rolls.Inc()
	m.RollValues.Observe(float64(v))
}

// ObserveBatch records the trials of a generated batch.
func (m *Metrics) ObserveBatch(b domain.Batch) {
	m.Trials.Add(float64(len(b)))
}

// ObserveDistribution records an exact distribution request.
// elapsed is ignored for cache hits and rejections.
func (m *Metrics) ObserveDistribution(source string, elapsed time.Duration) {
	m.Distributions.WithLabelValues(source).Inc()
	if source == SourceComputed {
		m.ExactDuration.Observe(elapsed.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument wraps node so that its rolls and batches are recorded in m.
func Instrument(node expr.Node, m *Metrics) expr.Node {
	if m == nil {
		return node
	}
	return expr.WithRollObserver(expr.WithGenerateObserver(node, m.ObserveBatch), m.ObserveRoll)
}
