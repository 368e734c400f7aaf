// Package metrics exposes stage activity as prometheus collectors
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KirkDiggler/bot-stage/internal/events"
)

const namespace = "stage"

// Collectors holds the stage's prometheus metrics. A nil *Collectors is
// valid and records nothing.
type Collectors struct {
	Events          *prometheus.CounterVec
	Avatars         prometheus.Gauge
	Fallbacks       *prometheus.CounterVec
	DramaResolved   *prometheus.CounterVec
	ModelLoads      *prometheus.CounterVec
	ModelLoadTime   *prometheus.HistogramVec
	TickDuration    prometheus.Histogram
	CachedTemplates prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Stage events emitted, by type.",
		}, []string{"type"}),
		Avatars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "avatars",
			Help:      "Avatars currently on stage.",
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embodiment_fallbacks_total",
			Help:      "Embodiment degradations, by resulting kind.",
		}, []string{"kind"}),
		DramaResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drama_resolved_total",
			Help:      "Overwrite dramas resolved, by trigger.",
		}, []string{"trigger"}),
		ModelLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Model loads, by source and result.",
		}, []string{"source", "result"}),
		ModelLoadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_seconds",
			Help:      "Time spent fetching and decoding models.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_seconds",
			Help:      "Wall time of one frame tick.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		CachedTemplates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_templates",
			Help:      "Custom templates held in the provisioning cache.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.Events,
			c.Avatars,
			c.Fallbacks,
			c.DramaResolved,
			c.ModelLoads,
			c.ModelLoadTime,
			c.TickDuration,
			c.CachedTemplates,
		)
	}

	return c
}

// ObserveLoad records one model load. source is "base", "clip" or "custom".
func (c *Collectors) ObserveLoad(source string, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ModelLoads.WithLabelValues(source, result).Inc()
	c.ModelLoadTime.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveTick records the duration of one frame tick
func (c *Collectors) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

// SetCachedTemplates records the provisioning cache size
func (c *Collectors) SetCachedTemplates(n int) {
	if c == nil {
		return
	}
	c.CachedTemplates.Set(float64(n))
}

func (c *Collectors) ID() string    { return "metrics" }
func (c *Collectors) Priority() int { return events.PriorityMetrics }

// HandleEvent counts stage events
func (c *Collectors) HandleEvent(e events.Event) error {
	if c == nil {
		return nil
	}

	c.Events.WithLabelValues(string(e.GetType())).Inc()

	switch e.GetType() {
	case events.EventTypeAvatarCreated:
		c.Avatars.Inc()
	case events.EventTypeEmbodimentFallback:
		if ev, ok := e.(*events.EmbodimentEvent); ok {
			c.Fallbacks.WithLabelValues(ev.Kind).Inc()
		}
	case events.EventTypeDramaResolved:
		trigger := "contact"
		if ev, ok := e.(*events.DramaEvent); ok && ev.TimedOut {
			trigger = "timeout"
		}
		c.DramaResolved.WithLabelValues(trigger).Inc()
	}

	return nil
}
