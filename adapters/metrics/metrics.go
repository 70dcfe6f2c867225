// Package metrics provides Prometheus metrics for resttree. The collector
// is fed from the event bus and served through Handler.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artpar/resttree/core/events"
)

const namespace = "resttree"

// Collector holds all Prometheus metrics for resttree.
type Collector struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tree metrics
	InvokersAssembled   *prometheus.CounterVec
	InvokersUnassembled *prometheus.CounterVec
	TreeSealed          prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates a collector on its own registry, with the Go and process
// collectors included.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c := NewWithRegistry(reg)
	c.gatherer = reg
	return c
}

// NewWithRegistry creates a collector registering on reg. Handler serves
// the default gatherer unless reg is also a Gatherer.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"verb", "node", "status", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"verb", "node"},
		),
		InvokersAssembled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invokers_assembled_total",
				Help:      "Invokers placed into the resource tree",
			},
			[]string{"service", "assembler"},
		),
		InvokersUnassembled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invokers_unassembled_total",
				Help:      "Invokers no assembler claimed",
			},
			[]string{"service"},
		),
		TreeSealed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tree_sealed",
				Help:      "1 once the resource tree is sealed",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c
}

// Subscribe feeds the collector from bus.
func (c *Collector) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.RequestCompleted, c.onRequest)
	bus.Subscribe(events.InvokerAssembled, c.onAssembled)
	bus.Subscribe(events.InvokerUnassembled, c.onUnassembled)
	bus.Subscribe(events.TreeSealed, func(ctx context.Context, e events.Event) error {
		c.TreeSealed.Set(1)
		return nil
	})
}

func (c *Collector) onRequest(ctx context.Context, e events.Event) error {
	verb, _ := e.Data["verb"].(string)
	node, _ := e.Data["node"].(string)
	code, _ := e.Data["code"].(string)
	status, _ := e.Data["status"].(int)

	c.RequestsTotal.WithLabelValues(verb, node, strconv.Itoa(status), code).Inc()
	c.RequestDuration.WithLabelValues(verb, node).Observe(e.Duration.Seconds())
	return nil
}

func (c *Collector) onAssembled(ctx context.Context, e events.Event) error {
	assembler, _ := e.Data["assembler"].(string)
	c.InvokersAssembled.WithLabelValues(e.Service, assembler).Inc()
	return nil
}

func (c *Collector) onUnassembled(ctx context.Context, e events.Event) error {
	c.InvokersUnassembled.WithLabelValues(e.Service).Inc()
	return nil
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	if c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
