package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eps_prepro"

// Metrics holds the Prometheus counters and histograms for a preprocessing job.
type Metrics struct {
	// Registry is the registry the metrics are registered with, served on /metrics.
	Registry *prometheus.Registry

	UnitsProcessed *prometheus.CounterVec // labels: outcome={ok,failed}
	Merges         *prometheus.CounterVec // labels: variable, regime
	MergeFailures  *prometheus.CounterVec // labels: variable, op
	Placeholders   *prometheus.CounterVec // labels: variable
	Publishes      *prometheus.CounterVec // labels: target={catalog,storage,kafka}, outcome
	MergeDuration  prometheus.Histogram
	UnitDuration   prometheus.Histogram
	WorkersBusy    prometheus.Gauge
}

// NewMetrics creates the job metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		UnitsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_processed_total",
			Help:      "Processing units finished by workers, by outcome.",
		}, []string{"outcome"}),
		Merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merged files produced, by variable and regime.",
		}, []string{"variable", "regime"}),
		MergeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_failures_total",
			Help:      "Failed (run, member, variable) merges, by variable and failing operation.",
		}, []string{"variable", "op"}),
		Placeholders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placeholders_total",
			Help:      "Missing forecast hours substituted with a placeholder.",
		}, []string{"variable"}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Publishing attempts of merged outputs, by target and outcome.",
		}, []string{"target", "outcome"}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of a single (run, member, variable) merge.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		UnitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Duration of preprocessing and merging one unit.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		}),
		WorkersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Workers currently processing an assignment.",
		}),
	}

	m.Registry.MustRegister(
		m.UnitsProcessed,
		m.Merges,
		m.MergeFailures,
		m.Placeholders,
		m.Publishes,
		m.MergeDuration,
		m.UnitDuration,
		m.WorkersBusy,
	)

	return m
}

// NewMetricsForTesting returns independent metrics for a single test.
// Each call uses its own registry, so tests never collide on registration.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}
