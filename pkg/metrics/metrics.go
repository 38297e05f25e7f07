// Package metrics exports lazy state decisions as Prometheus metrics.
//
// A Collector is a gate.Observer; attach it to any number of states:
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	view, setter := lazystate.Use(initial, lazystate.WithObserver(m))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/lazystate/pkg/gate"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "lazystate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for checks evaluated per decision.
	// Default: 0, 1, 2, 4, 8, 16, 32, 64.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus collector.
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

// WithBuckets sets the histogram buckets.
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
		Namespace: "lazystate",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Outcome label values for decisions_total.
const (
	OutcomeRerender = "rerender"
	OutcomeSkip     = "skip"
)

// Collector records gate decisions.
type Collector struct {
	decisions *prometheus.CounterVec
	checks    prometheus.Histogram
	observed  prometheus.Gauge
	empty     prometheus.Counter
}

var _ gate.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics.
// It panics if the metrics are already registered with the registry.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "decisions_total",
			Help:        "Total number of update decisions, by outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"outcome"}),

		checks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "checks_evaluated",
			Help:        "Equality checks evaluated per update decision",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),

		observed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "observed_paths",
			Help:        "Observed paths at the most recent update decision",
			ConstLabels: cfg.ConstLabels,
		}),

		empty: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "empty_commits_total",
			Help:        "Total number of commits of a state with no keys",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// ObserveDecision implements gate.Observer.
func (c *Collector) ObserveDecision(d gate.Decision) {
	outcome := OutcomeSkip
	if d.Rerender {
		outcome = OutcomeRerender
	}
	c.decisions.WithLabelValues(outcome).Inc()
	c.checks.Observe(float64(d.Checked))
	c.observed.Set(float64(d.Observed))
	if d.Empty {
		c.empty.Inc()
	}
}
