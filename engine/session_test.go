package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

func TestNewSession(t *testing.T) {
	s := newTestSession(t)
	snap := s.Snapshot()

	assert.Equal(t, ModeAll, snap.Derived.Canonical.Mode)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snap.Derived.Rows)
	assert.Equal(t, "No points selected.", snap.Derived.Summary.Text)
	for _, id := range []string{"A", "B", "C", "grade-slider", "grade-box"} {
		assert.Equal(t, ModeAll, snap.Selections[id].Mode, id)
	}
}

func TestNewSessionConfigurationErrors(t *testing.T) {
	tab := tenRows(t)

	tests := []struct {
		name   string
		mutate func(d *schema.Dashboard)
	}{
		{"unknown heatmap column", func(d *schema.Dashboard) { d.Heatmap = append(d.Heatmap, schema.BinMeta{Column: "nope", Bins: 3}) }},
		{"string histogram column", func(d *schema.Dashboard) { d.Views[0].Column = "school" }},
		{"zero bins", func(d *schema.Dashboard) { d.Views[0].Bins = 0 }},
		{"duplicate view id", func(d *schema.Dashboard) { d.Views[1].ID = "A" }},
		{"unknown outcome", func(d *schema.Dashboard) { d.Outcome = "G4" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDashboard()
			tt.mutate(d)
			_, err := NewSession(tab, d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}

func TestSessionScenario(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	// View A highlights rows 0-4, view B rows 2-6.
	_, err := s.HandleEvent(ctx, pointEvent("A", 0, 1, 2, 3, 4))
	require.NoError(t, err)
	u, err := s.HandleEvent(ctx, pointEvent("B", 2, 3, 4, 5, 6))
	require.NoError(t, err)

	assert.Equal(t, ModeSubset, u.Derived.Canonical.Mode)
	assert.Equal(t, []int{2, 3, 4}, u.Derived.Canonical.Rows())
	assert.Equal(t, []int{2, 3, 4}, u.Derived.Rows)
	assert.Equal(t, "Selected Points: 3 (30.00%)", u.Derived.Summary.Text)

	// Clearing every view restores the whole table.
	_, err = s.HandleEvent(ctx, clearEvent("A"))
	require.NoError(t, err)
	u, err = s.HandleEvent(ctx, clearEvent("B"))
	require.NoError(t, err)
	assert.Equal(t, ModeAll, u.Derived.Canonical.Mode)
	assert.Len(t, u.Derived.Rows, 10)
}

func TestSessionClearIdempotent(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.HandleEvent(ctx, pointEvent("A", 1, 2, 3))
	require.NoError(t, err)
	_, err = s.HandleEvent(ctx, pointEvent("B", 2, 3, 4))
	require.NoError(t, err)

	first, err := s.HandleEvent(ctx, clearEvent("B"))
	require.NoError(t, err)
	second, err := s.HandleEvent(ctx, clearEvent("B"))
	require.NoError(t, err)

	assert.Equal(t, first.Derived.Canonical.Mode, second.Derived.Canonical.Mode)
	assert.Equal(t, first.Derived.Canonical.Rows(), second.Derived.Canonical.Rows())
	assert.Equal(t, []int{1, 2, 3}, second.Derived.Rows)
}

func TestSessionCommutative(t *testing.T) {
	ctx := context.Background()
	events := []Event{
		pointEvent("A", 1, 2, 3, 6),
		pointEvent("B", 2, 6, 7, 8),
		{ViewID: "grade-slider", Kind: RangeSelection, Range: &ValueRange{Lo: 10, Hi: 15}},
	}

	var first []int
	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
		s := newTestSession(t)
		var u *Update
		for _, i := range order {
			var err error
			u, err = s.HandleEvent(ctx, events[i])
			require.NoError(t, err)
		}
		rows := u.Derived.Canonical.Rows()
		if first == nil {
			first = rows
		}
		assert.Equal(t, first, rows, "order %v", order)
	}
	assert.Equal(t, []int{2, 6}, first)
}

func TestSessionEmptyIntersection(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.HandleEvent(ctx, pointEvent("A", 0, 1))
	require.NoError(t, err)
	u, err := s.HandleEvent(ctx, pointEvent("B", 5, 6))
	require.NoError(t, err)

	d := u.Derived
	assert.Equal(t, ModeSubset, d.Canonical.Mode)
	assert.True(t, d.Canonical.IsEmpty())
	assert.Empty(t, d.Rows)
	assert.Equal(t, 0, d.View.Len())
	assert.True(t, d.Scatter.Empty)
	assert.True(t, d.Heatmap.Empty)
	assert.True(t, d.Radar.Empty)
	assert.True(t, d.Parallel.Empty)
	assert.True(t, d.BoxPlots["grade-box"].Empty)
	assert.Equal(t, "Selected Points: 0 (0.00%)", d.Summary.Text)
	for _, p := range d.Scatter.Points {
		assert.Equal(t, unselectedOpacity, p.Opacity)
	}
	for _, st := range d.BinStats {
		assert.Zero(t, st.Total)
	}
}

func TestSessionRejectsInvalidEvents(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		event Event
		field string
	}{
		{"row out of range", pointEvent("B", 1, 10), "points"},
		{"negative row", pointEvent("B", -1), "points"},
		{"unknown view", pointEvent("Z", 1), "viewId"},
		{"kind not accepted", Event{ViewID: "B", Kind: RangeSelection, Range: &ValueRange{Lo: 0, Hi: 1}}, "kind"},
		{"bin out of range", Event{ViewID: "A", Kind: BinSelection, Points: []int{4}}, "bin"},
		{"inverted range", Event{ViewID: "grade-slider", Kind: RangeSelection, Range: &ValueRange{Lo: 15, Hi: 5}}, "range"},
		{"unknown band", Event{ViewID: "grade-box", Kind: BandSelection, Bands: []string{"top_10"}}, "band"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			_, err := s.HandleEvent(ctx, pointEvent("B", 1, 2, 3))
			require.NoError(t, err)
			before := s.Snapshot()
			selectionsBefore := s.Selections()

			tt.event.ID = "evt-1"
			_, err = s.HandleEvent(ctx, tt.event)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, "evt-1", ve.EventID)

			assert.Same(t, before, s.Snapshot(), "state must be retained")
			assert.Equal(t, selectionsBefore["B"].Rows(), s.Selections()["B"].Rows())

			r := RejectionFor(tt.event, err)
			assert.Equal(t, "evt-1", r.EventID)
			assert.NotEmpty(t, r.Reason)
		})
	}
}

func TestSessionEventKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("bin selection resolves against displayed bins", func(t *testing.T) {
		s := newTestSession(t)
		u, err := s.HandleEvent(ctx, Event{ViewID: "A", Kind: BinSelection, Points: []int{3}})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 4, 8, 9}, u.Derived.Rows)
	})

	t.Run("empty bin selection resets", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.HandleEvent(ctx, Event{ViewID: "A", Kind: BinSelection, Points: []int{3}})
		require.NoError(t, err)
		u, err := s.HandleEvent(ctx, Event{ViewID: "A", Kind: BinSelection})
		require.NoError(t, err)
		assert.Equal(t, ModeAll, u.Selections["A"].Mode)
	})

	t.Run("range selection", func(t *testing.T) {
		s := newTestSession(t)
		u, err := s.HandleEvent(ctx, Event{ViewID: "grade-slider", Kind: RangeSelection, Range: &ValueRange{Lo: 10, Hi: 15}})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 6, 7}, u.Derived.Rows)

		u, err = s.HandleEvent(ctx, Event{ViewID: "grade-slider", Kind: RangeSelection})
		require.NoError(t, err)
		assert.Equal(t, ModeAll, u.Derived.Canonical.Mode)
	})

	t.Run("band selection", func(t *testing.T) {
		s := newTestSession(t)
		g := s.builder.Bands("grade-box")
		require.NotNil(t, g)

		u, err := s.HandleEvent(ctx, Event{ViewID: "grade-box", Kind: BandSelection, Bands: []string{BandWithinIQR}})
		require.NoError(t, err)
		assert.Len(t, u.Derived.Rows, g.Counts[BandWithinIQR])
		for _, r := range u.Derived.Rows {
			v := s.Table().Value(r, "G3")
			assert.True(t, v >= g.Stats.Q1 && v <= g.Stats.Q3, "row %d value %v", r, v)
		}
	})

	t.Run("additive point selection", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.HandleEvent(ctx, pointEvent("B", 1, 2))
		require.NoError(t, err)
		u, err := s.HandleEvent(ctx, Event{ViewID: "B", Kind: PointSelection, Points: []int{7}, Additive: true})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 7}, u.Derived.Rows)

		u, err = s.HandleEvent(ctx, pointEvent("B", 9))
		require.NoError(t, err)
		assert.Equal(t, []int{9}, u.Derived.Rows, "non-additive replaces")
	})

	t.Run("events without id get one", func(t *testing.T) {
		s := newTestSession(t)
		u, err := s.HandleEvent(ctx, pointEvent("B", 1))
		require.NoError(t, err)
		assert.NotEmpty(t, u.EventID)
	})
}

func TestSessionReset(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	_, err := s.HandleEvent(ctx, pointEvent("A", 0, 1, 2))
	require.NoError(t, err)
	_, err = s.HandleEvent(ctx, pointEvent("B", 1, 2))
	require.NoError(t, err)

	u, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeAll, u.Derived.Canonical.Mode)
	for id, sel := range s.Selections() {
		assert.Equal(t, ModeAll, sel.Mode, id)
	}
}

func TestSessionCanceledContext(t *testing.T) {
	s := newTestSession(t)
	before := s.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.HandleEvent(ctx, pointEvent("B", 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Same(t, before, s.Snapshot())
}

func TestSessionMetricsAndCache(t *testing.T) {
	m := &BasicMetricsCollector{}
	s := newTestSession(t, WithMetrics(m))
	ctx := context.Background()

	_, err := s.HandleEvent(ctx, pointEvent("B", 1, 2))
	require.NoError(t, err)
	_, err = s.HandleEvent(ctx, pointEvent("B", 99))
	require.Error(t, err)
	_, err = s.HandleEvent(ctx, clearEvent("B"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.Accepted.Load())
	assert.Equal(t, int64(1), m.Rejected.Load())
	// Initial ALL build and {1,2} miss; clearing back to ALL hits.
	assert.Equal(t, int64(2), m.CacheMisses.Load())
	assert.Equal(t, int64(1), m.CacheHits.Load())
}

// labelRecorder keeps the labels of every recorded event.
type labelRecorder struct {
	NoopMetricsCollector
	mu     sync.Mutex
	labels []string
}

func (r *labelRecorder) RecordEvent(viewID string, kind EventKind, _ time.Duration, _ int, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, viewID+"/"+string(kind))
}

func TestSessionMetricLabels(t *testing.T) {
	rec := &labelRecorder{}
	s := newTestSession(t, WithMetrics(rec))
	ctx := context.Background()

	_, err := s.HandleEvent(ctx, pointEvent("B", 1))
	require.NoError(t, err)
	_, err = s.HandleEvent(ctx, pointEvent("no-such-view-1", 1))
	require.Error(t, err)
	_, err = s.HandleEvent(ctx, pointEvent("no-such-view-2", 1))
	require.Error(t, err)
	_, err = s.HandleEvent(ctx, Event{ViewID: "B", Kind: "ZOOM"})
	require.Error(t, err)

	assert.Equal(t, []string{
		"B/POINT_SELECTION",
		"unknown/POINT_SELECTION",
		"unknown/POINT_SELECTION",
		"B/UNKNOWN",
	}, rec.labels)
}

func TestSessionWithoutCache(t *testing.T) {
	s := newTestSession(t, WithCache(0, 0))
	u, err := s.HandleEvent(context.Background(), pointEvent("B", 4))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, u.Derived.Rows)
}

func TestSessionConcurrentEvents(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view := "A"
			if i%2 == 1 {
				view = "B"
			}
			_, err := s.HandleEvent(ctx, pointEvent(view, i%10, (i+1)%10))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Whatever the interleaving, the committed canonical selection is the
	// combination of the committed per-view selections.
	snap := s.Snapshot()
	want := Combine(s.Selections())
	assert.ElementsMatch(t, want.Rows(), snap.Derived.Canonical.Rows())
}

func TestViewPayload(t *testing.T) {
	s := newTestSession(t)

	p, ok := s.ViewPayload("A")
	require.True(t, ok)
	assert.IsType(t, &BinStatistics{}, p)

	p, ok = s.ViewPayload("grade-box")
	require.True(t, ok)
	assert.IsType(t, &BoxPlotPayload{}, p)

	p, ok = s.ViewPayload("B")
	require.True(t, ok)
	assert.IsType(t, &ScatterPayload{}, p)

	_, ok = s.ViewPayload("nope")
	assert.False(t, ok)
}
