package engine

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from a Session.
// The metrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordEvent is called after each event. err is nil when the event
	// was accepted; canonical is the resulting canonical size (-1 for ALL).
	// viewID is a configured view id or UnknownView, and kind is a known
	// kind or UnknownKind.
	RecordEvent(viewID string, kind EventKind, duration time.Duration, canonical int, err error)

	// RecordCache is called on every derived-payload lookup.
	RecordCache(hit bool)
}

// Labels reported for events naming a view or kind the session does not know.
const (
	UnknownView           = "unknown"
	UnknownKind EventKind = "UNKNOWN"
)

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEvent(string, EventKind, time.Duration, int, error) {}
func (NoopMetricsCollector) RecordCache(bool)                                         {}

// BasicMetricsCollector keeps in-memory counters; handy in tests and replay.
type BasicMetricsCollector struct {
	Accepted    atomic.Int64
	Rejected    atomic.Int64
	TotalNanos  atomic.Int64
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
}

// RecordEvent implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvent(_ string, _ EventKind, duration time.Duration, _ int, err error) {
	b.TotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Rejected.Add(1)
		return
	}
	b.Accepted.Add(1)
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(hit bool) {
	if hit {
		b.CacheHits.Add(1)
		return
	}
	b.CacheMisses.Add(1)
}
