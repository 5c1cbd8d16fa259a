// Package metrics exposes the reactive graph's activity as Prometheus
// metrics. It implements weft.Observer; install it with
// weft.SetObserver (or combine with others via observability.Multi).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weft-dev/weft/pkg/weft"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for run durations.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "weft",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer is a weft.Observer backed by Prometheus collectors.
type Observer struct {
	signalWrites    prometheus.Counter
	memoRecomputes  *prometheus.CounterVec
	memoDuration    prometheus.Histogram
	effectRuns      prometheus.Counter
	effectDuration  prometheus.Histogram
	ownerDisposals  prometheus.Counter
	resourceLoads   *prometheus.CounterVec
	suspensePending prometheus.Gauge
}

// New creates a Prometheus observer and registers its collectors.
// Registering twice on the same registry panics (promauto semantics);
// create one Observer per process or pass distinct registries.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Observer{
		signalWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of signal writes that changed a value",
			ConstLabels: config.ConstLabels,
		}),

		memoRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "memo_recomputes_total",
			Help:        "Total number of memo recomputations, by whether the value changed",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		memoDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "memo_duration_seconds",
			Help:        "Memo compute function duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect body executions",
			ConstLabels: config.ConstLabels,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect body duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		ownerDisposals: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "owner_disposals_total",
			Help:        "Total number of disposed owner scopes",
			ConstLabels: config.ConstLabels,
		}),

		resourceLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resource_loads_total",
			Help:        "Total number of completed resource fetches, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		suspensePending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "suspense_pending",
			Help:        "Resources currently pending in suspense scopes",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (o *Observer) SignalWrite(uint64) {
	o.signalWrites.Inc()
}

func (o *Observer) MemoRecompute(_ uint64, changed bool, elapsed time.Duration) {
	o.memoRecomputes.WithLabelValues(strconv.FormatBool(changed)).Inc()
	o.memoDuration.Observe(elapsed.Seconds())
}

func (o *Observer) EffectRun(_ uint64, elapsed time.Duration) {
	o.effectRuns.Inc()
	o.effectDuration.Observe(elapsed.Seconds())
}

func (o *Observer) OwnerDispose(uint64) {
	o.ownerDisposals.Inc()
}

func (o *Observer) ResourceLoad(_ uint64, _ time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.resourceLoads.WithLabelValues(outcome).Inc()
}

func (o *Observer) SuspensePending(count int64) {
	o.suspensePending.Set(float64(count))
}

var _ weft.Observer = (*Observer)(nil)
