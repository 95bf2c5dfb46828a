// Package metrics exposes Prometheus collectors for the freshness engine
// and inverse propagator: how often state variables are freshened, how
// often that freshening was a cache hit versus a real recomputation, and
// how deep inverse-propagation chains run. Metrics are optional — the
// package defaults to a no-op collector so embedding doenetgraph never
// requires a Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives engine and propagator events. The zero value of
// noopCollector satisfies it with every method doing nothing, so callers
// that never call SetGlobal pay no collection cost.
type Collector interface {
	RecordFreshen(component, stateVar string, cacheHit bool)
	RecordInverseDepth(depth int)
	RecordWarning(kind string)
}

type noopCollector struct{}

func (noopCollector) RecordFreshen(component, stateVar string, cacheHit bool) {}
func (noopCollector) RecordInverseDepth(depth int)                            {}
func (noopCollector) RecordWarning(kind string)                               {}

var global Collector = noopCollector{}

// SetGlobal installs the collector used by Freshen/InverseDepth/Warning.
// Passing nil restores the no-op default.
func SetGlobal(c Collector) {
	if c == nil {
		c = noopCollector{}
	}
	global = c
}

// Freshen records one EnsureFresh call for (component, stateVar), noting
// whether it found the value already Fresh (cacheHit) or had to recompute.
func Freshen(component, stateVar string, cacheHit bool) { global.RecordFreshen(component, stateVar, cacheHit) }

// InverseDepth records how many pending steps one HandleAction's call into
// the Inverse Propagator required before it ran dry.
func InverseDepth(depth int) { global.RecordInverseDepth(depth) }

// Warning records a graph-construction warning by kind, so a dashboard can
// track how often malformed markup reaches the engine.
func Warning(kind string) { global.RecordWarning(kind) }

// PrometheusCollector implements Collector using Prometheus. All metrics
// are prefixed with "doenetgraph_".
//
// Metrics exposed:
//   - doenetgraph_freshen_total: counter of EnsureFresh calls, partitioned
//     by component type and cache_hit
//   - doenetgraph_stale_recompute_total: counter of freshen calls that
//     actually recomputed (cache_hit="false"), partitioned by state variable
//   - doenetgraph_inverse_propagation_depth: histogram of pending-steps
//     consumed per HandleAction inverse walk
//   - doenetgraph_warnings_total: counter of graph construction warnings,
//     partitioned by kind
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	metrics.SetGlobal(metrics.NewPrometheusCollector(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
type PrometheusCollector struct {
	freshenTotal   *prometheus.CounterVec
	recomputeTotal *prometheus.CounterVec
	inverseDepth   prometheus.Histogram
	warningsTotal  *prometheus.CounterVec
}

// NewPrometheusCollector creates and registers every collector against reg.
// Registration failure (e.g. calling this twice against the same registry)
// panics — fail fast at startup rather than silently dropping metrics.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	freshenTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doenetgraph_freshen_total",
			Help: "Total number of EnsureFresh calls, partitioned by component type and whether the result was already fresh.",
		},
		[]string{"component_type", "cache_hit"},
	)
	recomputeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doenetgraph_stale_recompute_total",
			Help: "Total number of state variable recomputations, partitioned by state variable name.",
		},
		[]string{"state_var"},
	)
	inverseDepth := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "doenetgraph_inverse_propagation_depth",
			Help:    "Histogram of pending-step counts consumed per inverse propagation walk.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)
	warningsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doenetgraph_warnings_total",
			Help: "Total number of graph construction warnings, partitioned by kind.",
		},
		[]string{"kind"},
	)

	reg.MustRegister(freshenTotal, recomputeTotal, inverseDepth, warningsTotal)

	return &PrometheusCollector{
		freshenTotal:   freshenTotal,
		recomputeTotal: recomputeTotal,
		inverseDepth:   inverseDepth,
		warningsTotal:  warningsTotal,
	}
}

func (p *PrometheusCollector) RecordFreshen(component, stateVar string, cacheHit bool) {
	hit := "false"
	if cacheHit {
		hit = "true"
	}
	p.freshenTotal.WithLabelValues(component, hit).Inc()
	if !cacheHit {
		p.recomputeTotal.WithLabelValues(stateVar).Inc()
	}
}

func (p *PrometheusCollector) RecordInverseDepth(depth int) {
	p.inverseDepth.Observe(float64(depth))
}

func (p *PrometheusCollector) RecordWarning(kind string) {
	p.warningsTotal.WithLabelValues(kind).Inc()
}
