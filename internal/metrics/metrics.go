// Package metrics exposes daemon counters in Prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "treetile"

// Creation results used as the result label.
const (
	ResultConfirmed = "confirmed"
	ResultFailed    = "failed"
)

// Collector owns the daemon's Prometheus series and a private registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	tickDuration  prometheus.Histogram
	relayouts     prometheus.Counter
	geometrySets  prometheus.Counter
	windowsMoved  prometheus.Counter
	creations     *prometheus.CounterVec
	balanceAborts prometheus.Counter
	tiledWindows  prometheus.Gauge
}

// New creates a collector with every series registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of poll ticks run",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a poll tick in seconds",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		relayouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayouts_total",
			Help:      "Total number of layout passes that pushed geometry",
		}),
		geometrySets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_updates_total",
			Help:      "Total number of window geometry updates issued",
		}),
		windowsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_moved_total",
			Help:      "Total number of windows moved to another workspace",
		}),
		creations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_creations_total",
			Help:      "Total number of workspace requests by result",
		}, []string{"result"}),
		balanceAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_aborts_total",
			Help:      "Total number of overloaded workspaces left unbalanced",
		}),
		tiledWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tiled_windows",
			Help:      "Number of windows in the last layout pass",
		}),
	}

	c.registry.MustRegister(
		c.ticks,
		c.tickDuration,
		c.relayouts,
		c.geometrySets,
		c.windowsMoved,
		c.creations,
		c.balanceAborts,
		c.tiledWindows,
	)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveTick records one finished tick.
func (c *Collector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.ticks.Inc()
	c.tickDuration.Observe(d.Seconds())
}

// ObserveLayout records the window count of a layout pass and, when
// geometry was pushed, how many windows were placed.
func (c *Collector) ObserveLayout(windows, applied int, changed bool) {
	if c == nil {
		return
	}
	c.tiledWindows.Set(float64(windows))
	if !changed {
		return
	}
	c.relayouts.Inc()
	c.geometrySets.Add(float64(applied))
}

// ObserveBalance records the outcome of a balancing pass.
func (c *Collector) ObserveBalance(moved, created, creationFailures, aborted int) {
	if c == nil {
		return
	}
	c.windowsMoved.Add(float64(moved))
	c.creations.WithLabelValues(ResultConfirmed).Add(float64(created))
	c.creations.WithLabelValues(ResultFailed).Add(float64(creationFailures))
	c.balanceAborts.Add(float64(aborted))
}
