// Package wvprom exports weave activity as Prometheus metrics. A Collector is fed
// through weave hooks and registered like any other prometheus.Collector.
package wvprom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bpradana/wv"
)

// Collector tracks entity creation, rejected references and weave lifetimes.
type Collector struct {
	created  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	live     prometheus.Gauge
	closed   prometheus.Counter
}

// Option configures a Collector.
type Option func(*config)

type config struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace overrides the metric namespace (default "wv").
func WithNamespace(ns string) Option {
	return func(cfg *config) {
		cfg.namespace = ns
	}
}

// WithConstLabels attaches constant labels to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(cfg *config) {
		cfg.constLabels = labels
	}
}

// New builds an unregistered Collector.
func New(opts ...Option) *Collector {
	cfg := config{namespace: "wv"}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Collector{
		created: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Name:        "entities_created_total",
				Help:        "Total number of entities created, by kind",
				ConstLabels: cfg.constLabels,
			},
			[]string{"kind"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Name:        "creations_rejected_total",
				Help:        "Total number of rejected creation attempts, by operation and reason",
				ConstLabels: cfg.constLabels,
			},
			[]string{"op", "reason"},
		),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.namespace,
			Name:        "weaves_live",
			Help:        "Number of weaves constructed through the collector and not yet closed",
			ConstLabels: cfg.constLabels,
		}),
		closed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.namespace,
			Name:        "weaves_closed_total",
			Help:        "Total number of weaves closed",
			ConstLabels: cfg.constLabels,
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.created.Describe(ch)
	c.rejected.Describe(ch)
	c.live.Describe(ch)
	c.closed.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.created.Collect(ch)
	c.rejected.Collect(ch)
	c.live.Collect(ch)
	c.closed.Collect(ch)
}

// Hooks returns weave hooks that record into the collector. Weaves instrumented
// this way are not counted as live; use NewWeave for that.
func (c *Collector) Hooks() wv.Hooks {
	return wv.Hooks{
		OnCreate: func(ev wv.Event) {
			c.created.WithLabelValues(ev.Kind.String()).Inc()
		},
		OnReject: func(ev wv.Event) {
			c.rejected.WithLabelValues(string(ev.Op), Reason(ev.Err)).Inc()
		},
		OnClose: func(wv.Stats) {
			c.closed.Inc()
		},
	}
}

// NewWeave constructs an instrumented weave and counts it as live until Close.
func (c *Collector) NewWeave(opts ...wv.Option) *wv.Weave {
	c.live.Inc()
	hooks := c.Hooks().Merge(wv.Hooks{
		OnClose: func(wv.Stats) { c.live.Dec() },
	})
	opts = append(opts[:len(opts):len(opts)], wv.WithHooks(hooks))
	return wv.New(opts...)
}

// Reason classifies a creation error into a metric label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, wv.ErrClosed):
		return "closed"
	case errors.Is(err, wv.ErrIDSpaceExhausted):
		return "exhausted"
	case errors.Is(err, wv.ErrNilEntity):
		return "nil_entity"
	case errors.Is(err, wv.ErrForeignEntity):
		return "foreign_entity"
	case errors.Is(err, wv.ErrUnknownEntity):
		return "unknown_entity"
	case errors.Is(err, wv.ErrNotKnot):
		return "not_knot"
	case errors.Is(err, wv.ErrUnknownDatatype), errors.Is(err, wv.ErrComponentMismatch):
		return "component"
	default:
		return "other"
	}
}
