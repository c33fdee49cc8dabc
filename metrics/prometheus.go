package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haakonRefsvik/VA-student-performance/engine"
)

// Collector implements engine.MetricsCollector on Prometheus.
type Collector struct {
	events    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	canonical prometheus.Gauge
	cache     *prometheus.CounterVec
}

var _ engine.MetricsCollector = (*Collector)(nil)

// NewCollector creates the session metrics and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Selection events processed, by view, kind and status",
		}, []string{"view", "kind", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time to resolve, combine and derive one event",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind", "status"}),
		canonical: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "canonical_rows",
			Help:      "Rows in the canonical selection (-1 when nothing is selected)",
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derived_cache_lookups_total",
			Help:      "Derived payload cache lookups",
		}, []string{"result"}),
	}
	c.canonical.Set(-1)

	for _, m := range []prometheus.Collector{c.events, c.latency, c.canonical, c.cache} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordEvent implements engine.MetricsCollector.
func (c *Collector) RecordEvent(viewID string, kind engine.EventKind, d time.Duration, canonical int, err error) {
	status := "accepted"
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = "rejected"
	case err != nil:
		status = "error"
	}
	c.events.WithLabelValues(viewID, string(kind), status).Inc()
	c.latency.WithLabelValues(string(kind), status).Observe(d.Seconds())
	if err == nil {
		c.canonical.Set(float64(canonical))
	}
}

// RecordCache implements engine.MetricsCollector.
func (c *Collector) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cache.WithLabelValues(result).Inc()
}
