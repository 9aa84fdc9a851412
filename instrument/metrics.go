// Package instrument exports what the reactive runtime and the task
// scheduler report to Prometheus and OpenTelemetry.
//
//	m := instrument.NewMetrics(instrument.WithRegistry(reg))
//	sig.Configure(sig.WithObserver(m))
//	s := scheduler.New(loop, scheduler.WithObserver(m))
package instrument

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AnatoleLucet/sig/v2"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sig").
	Namespace string

	Subsystem   string
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and slice durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "sig",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a sig.Observer and a scheduler.Observer recording Prometheus
// metrics. Registering two of them on the same registry panics.
//
// Metrics collected:
//   - sig_flushes_total: Counter of outermost flushes
//   - sig_flush_duration_seconds: Histogram of flush durations
//   - sig_computations_total: Counter of pure computations run by flushes
//   - sig_effects_total: Counter of effects run by flushes
//   - sig_computation_errors_total: Counter of failed computations by handled
//   - sig_scheduler_slices_total: Counter of work loop slices
//   - sig_scheduler_slice_duration_seconds: Histogram of slice durations
//   - sig_scheduler_tasks_total: Counter of tasks run by status
//   - sig_scheduler_yields_total: Counter of slices ended by a yield
//   - sig_scheduler_pending_tasks: Gauge of queued tasks after the last slice
type Metrics struct {
	flushes       prometheus.Counter
	flushDuration prometheus.Histogram
	computations  prometheus.Counter
	effects       prometheus.Counter
	errors        *prometheus.CounterVec

	slices        prometheus.Counter
	sliceDuration prometheus.Histogram
	tasks         *prometheus.CounterVec
	yields        prometheus.Counter
	pending       prometheus.Gauge
}

var (
	_ sig.Observer       = (*Metrics)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
)

func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of outermost flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		computations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computations_total",
			Help:        "Total number of pure computations run by flushes",
			ConstLabels: config.ConstLabels,
		}),

		effects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Total number of effects run by flushes",
			ConstLabels: config.ConstLabels,
		}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_errors_total",
			Help:        "Total number of failed computations",
			ConstLabels: config.ConstLabels,
		}, []string{"handled"}),

		slices: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_slices_total",
			Help:        "Total number of scheduler work loop slices",
			ConstLabels: config.ConstLabels,
		}),

		sliceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_slice_duration_seconds",
			Help:        "Scheduler slice duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_tasks_total",
			Help:        "Total number of scheduler tasks run",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		yields: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_yields_total",
			Help:        "Total number of slices that yielded to the host",
			ConstLabels: config.ConstLabels,
		}),

		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "scheduler_pending_tasks",
			Help:        "Number of queued scheduler tasks after the last slice",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) FlushFinished(stats sig.FlushStats) {
	m.flushes.Inc()
	m.flushDuration.Observe(stats.Duration.Seconds())
	m.computations.Add(float64(stats.Computations))
	m.effects.Add(float64(stats.Effects))
}

func (m *Metrics) ComputationFailed(_ error, handled bool) {
	m.errors.WithLabelValues(strconv.FormatBool(handled)).Inc()
}

func (m *Metrics) SliceFinished(stats scheduler.SliceStats) {
	m.slices.Inc()
	m.sliceDuration.Observe(stats.Duration.Seconds())
	m.tasks.WithLabelValues("on_time").Add(float64(stats.Tasks - stats.TimedOut))
	m.tasks.WithLabelValues("timed_out").Add(float64(stats.TimedOut))
	if stats.Yielded {
		m.yields.Inc()
	}
	m.pending.Set(float64(stats.Pending))
}
