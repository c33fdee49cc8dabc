package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// SESSION — Serialized event pipeline over one table and dashboard
// ============================================================================
// Entry point: HandleEvent(ctx, event)
//
// Pipeline (all-or-nothing):
//   1. Validate view id and event kind
//   2. Resolve the payload to a ViewSelection
//   3. Copy the selection map and replace this view's entry
//   4. Combine → CanonicalSelection
//   5. Build → Derived (cached by canonical fingerprint)
//   6. Commit
//
// A failure at any step leaves the previous state untouched. One event is
// processed at a time; concurrent callers queue on the mutex.
// ============================================================================

// Session holds the per-view selections and the last derived output.
type Session struct {
	mu sync.Mutex

	table     *Table
	dashboard *schema.Dashboard
	builder   *Builder
	cfg       *config
	log       *logrus.Logger
	cache     *ttlcache.Cache[uint64, *Derived]

	selections map[string]ViewSelection
	current    *Update
}

// NewSession validates the dashboard against the table and computes the
// initial, unfiltered payloads.
func NewSession(t *Table, d *schema.Dashboard, opts ...Option) (*Session, error) {
	if t == nil || d == nil {
		return nil, &ConfigurationError{Field: "session", Reason: "table and dashboard are required"}
	}
	cfg := applyOptions(opts)

	b, err := NewBuilder(t, d, schema.NewLabeler(cfg.Schema))
	if err != nil {
		return nil, err
	}

	s := &Session{
		table:      t,
		dashboard:  d,
		builder:    b,
		cfg:        cfg,
		log:        cfg.Logger,
		selections: make(map[string]ViewSelection, len(d.Views)),
	}
	if cfg.CacheSize > 0 {
		s.cache = ttlcache.New[uint64, *Derived](
			ttlcache.WithTTL[uint64, *Derived](cfg.CacheTTL),
			ttlcache.WithCapacity[uint64, *Derived](cfg.CacheSize),
		)
	}
	for _, v := range d.Views {
		s.selections[v.ID] = AllSelection(v.ID)
	}

	canonical := Combine(s.selections)
	derived, err := s.derive(canonical)
	if err != nil {
		return nil, err
	}
	s.current = &Update{Selections: copySelections(s.selections), Derived: derived}

	s.log.WithFields(logrus.Fields{
		"Dashboard": d.Name,
		"Rows":      t.Len(),
		"Views":     len(d.Views),
	}).Infoln("Session ready ✅")
	return s, nil
}

// HandleEvent applies one selection event and returns the resulting update.
// Rejected events return a *ValidationError (or *ConfigurationError) and
// leave the session unchanged.
func (s *Session) HandleEvent(ctx context.Context, ev Event) (*Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if ev.ID == "" {
		if id, err := gonanoid.New(); err == nil {
			ev.ID = id
		}
	}

	update, err := s.apply(ctx, ev)
	elapsed := time.Since(start)
	if err != nil {
		view, kind := s.metricLabels(ev)
		s.cfg.Metrics.RecordEvent(view, kind, elapsed, s.current.Derived.Canonical.Len(), err)
		s.log.WithFields(logrus.Fields{
			"Event Id": ev.ID,
			"View Id":  ev.ViewID,
			"Kind":     ev.Kind,
		}).Warnf("Event rejected: %v ⛔", err)
		return nil, err
	}

	s.cfg.Metrics.RecordEvent(ev.ViewID, ev.Kind, elapsed, update.Derived.Canonical.Len(), nil)
	s.log.WithFields(logrus.Fields{
		"Event Id":  ev.ID,
		"View Id":   ev.ViewID,
		"Kind":      ev.Kind,
		"Canonical": update.Derived.Summary.Text,
		"Duration":  elapsed,
	}).Debugln("Event applied 📊")
	return update, nil
}

// metricLabels bounds the label values handed to the metrics collector:
// client-supplied ids that name no configured view collapse to UnknownView.
func (s *Session) metricLabels(ev Event) (string, EventKind) {
	view, kind := ev.ViewID, ev.Kind
	if _, ok := s.dashboard.View(view); !ok {
		view = UnknownView
	}
	switch kind {
	case PointSelection, BinSelection, Clear, RangeSelection, BandSelection:
	default:
		kind = UnknownKind
	}
	return view, kind
}

func (s *Session) apply(ctx context.Context, ev Event) (*Update, error) {
	meta, ok := s.dashboard.View(ev.ViewID)
	if !ok {
		return nil, &ValidationError{EventID: ev.ID, ViewID: ev.ViewID, Field: "viewId", Value: ev.ViewID, Reason: "unknown view"}
	}
	if !Accepts(meta.Kind, ev.Kind) {
		return nil, &ValidationError{EventID: ev.ID, ViewID: ev.ViewID, Field: "kind", Value: string(ev.Kind),
			Reason: "event kind not accepted by " + string(meta.Kind) + " view"}
	}

	next, err := s.resolve(meta, ev)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.EventID = ev.ID
		}
		return nil, err
	}

	selections := copySelections(s.selections)
	selections[meta.ID] = next
	canonical := Combine(selections)

	derived, err := s.derive(canonical)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.selections = selections
	s.current = &Update{EventID: ev.ID, Selections: copySelections(selections), Derived: derived}
	return s.current, nil
}

// resolve turns the event payload into the view's next selection.
func (s *Session) resolve(meta schema.ViewMeta, ev Event) (ViewSelection, error) {
	var rows *roaring.Bitmap
	var err error

	switch ev.Kind {
	case Clear:
		return AllSelection(meta.ID), nil

	case PointSelection:
		sel, err := ApplySelectionEvent(meta.ID, ev.Points, s.table.Len())
		if err != nil || sel.Mode == ModeAll {
			return sel, err
		}
		rows = sel.Indices

	case BinSelection:
		if len(ev.Points) == 0 {
			return AllSelection(meta.ID), nil
		}
		rows, err = ResolveBins(meta.ID, s.current.Derived.Histograms[meta.ID], ev.Points)

	case RangeSelection:
		if ev.Range == nil {
			return AllSelection(meta.ID), nil
		}
		rows, err = ResolveRange(meta.ID, s.table, meta.Column, *ev.Range)

	case BandSelection:
		if len(ev.Bands) == 0 {
			return AllSelection(meta.ID), nil
		}
		rows, err = ResolveBands(meta.ID, s.builder.Bands(meta.ID), ev.Bands)

	default:
		return ViewSelection{}, &ValidationError{ViewID: meta.ID, Field: "kind", Value: string(ev.Kind), Reason: "unknown event kind"}
	}
	if err != nil {
		return ViewSelection{}, err
	}

	return ViewSelection{
		ViewID:  meta.ID,
		Mode:    ModeSubset,
		Indices: withAdditive(s.selections[meta.ID], rows, ev.Additive),
	}, nil
}

// derive builds payloads for c, going through the cache when enabled.
func (s *Session) derive(c CanonicalSelection) (*Derived, error) {
	if s.cache == nil {
		return s.builder.Build(c)
	}
	key := fingerprint(c)
	if item := s.cache.Get(key); item != nil {
		s.cfg.Metrics.RecordCache(true)
		return item.Value(), nil
	}
	s.cfg.Metrics.RecordCache(false)
	d, err := s.builder.Build(c)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, d, ttlcache.DefaultTTL)
	return d, nil
}

// Reset clears every view back to ALL as one atomic update.
func (s *Session) Reset(ctx context.Context) (*Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	selections := make(map[string]ViewSelection, len(s.selections))
	for id := range s.selections {
		selections[id] = AllSelection(id)
	}
	derived, err := s.derive(Combine(selections))
	if err != nil {
		return nil, err
	}
	s.selections = selections
	s.current = &Update{Selections: copySelections(selections), Derived: derived}
	s.log.Infoln("Session reset ✅")
	return s.current, nil
}

// Snapshot returns the last committed update.
func (s *Session) Snapshot() *Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Selections returns a copy of the per-view selections.
func (s *Session) Selections() map[string]ViewSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySelections(s.selections)
}

// Dashboard returns the session's dashboard description.
func (s *Session) Dashboard() *schema.Dashboard { return s.dashboard }

// Table returns the session's RowTable.
func (s *Session) Table() *Table { return s.table }

// ViewPayload returns the payload a given view renders from the current
// snapshot: bin statistics for histograms, box statistics for box plots,
// the scatter payload for scatter views and the summary for range sliders.
func (s *Session) ViewPayload(viewID string) (interface{}, bool) {
	meta, ok := s.dashboard.View(viewID)
	if !ok {
		return nil, false
	}
	d := s.Snapshot().Derived
	switch meta.Kind {
	case schema.ViewHistogram:
		return d.Histograms[viewID], true
	case schema.ViewBoxPlot:
		return d.BoxPlots[viewID], true
	case schema.ViewScatter:
		return d.Scatter, true
	}
	return d.Summary, true
}

// RejectionFor converts a HandleEvent error into a UI notification.
func RejectionFor(ev Event, err error) Rejection {
	r := Rejection{EventID: ev.ID, ViewID: ev.ViewID, Kind: ev.Kind, Reason: err.Error()}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.EventID != "" {
			r.EventID = ve.EventID
		}
		r.Reason = ve.Reason
		if ve.Field != "" {
			r.Reason += " (" + ve.Field + "=" + ve.Value + ")"
		}
	}
	return r
}

// ============================================================================
// HELPERS
// ============================================================================

func copySelections(in map[string]ViewSelection) map[string]ViewSelection {
	out := make(map[string]ViewSelection, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fingerprint hashes a canonical selection for the derived cache.
func fingerprint(c CanonicalSelection) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(string(c.Mode))
	if c.Mode == ModeSubset && c.Indices != nil {
		var buf [4]byte
		it := c.Indices.Iterator()
		for it.HasNext() {
			binary.LittleEndian.PutUint32(buf[:], it.Next())
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}
