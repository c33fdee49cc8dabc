package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

// tenRows is the ten-student fixture used across the engine tests.
//
//	row    0   1   2   3   4   5   6   7   8   9
//	G3     5  10  15  20   0   5  10  15  20   0
//	score  0   5  10  15  20   0   5  10  15  20
func tenRows(t *testing.T) *Table {
	t.Helper()
	tab, err := BuildTable(
		"G3", []int{5, 10, 15, 20, 0, 5, 10, 15, 20, 0},
		"score", []float64{0, 5, 10, 15, 20, 0, 5, 10, 15, 20},
		"Medu", []int{0, 1, 2, 3, 4, 4, 3, 2, 1, 0},
		"sex", []bool{false, true, false, true, false, true, false, true, false, true},
		"constant", []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
		"tsne-1", []float64{-10, -8, -6, -4, -2, 0, 2, 4, 6, 10},
		"tsne-2", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 11},
		"school", []string{"GP", "GP", "MS", "GP", "MS", "GP", "GP", "MS", "GP", "GP"},
	)
	require.NoError(t, err)
	return tab
}

// testDashboard links a scatter, two histograms, a range slider and a box
// plot, and renders every dependent panel.
func testDashboard() *schema.Dashboard {
	return &schema.Dashboard{
		Name:       "test",
		Outcome:    "G3",
		EmbeddingX: "tsne-1",
		EmbeddingY: "tsne-2",
		Views: []schema.ViewMeta{
			{ID: "A", Kind: schema.ViewHistogram, Column: "score", Bins: 4},
			{ID: "B", Kind: schema.ViewScatter},
			{ID: "C", Kind: schema.ViewHistogram, Column: "sex", Bins: 2},
			{ID: "grade-slider", Kind: schema.ViewRange, Column: "G3"},
			{ID: "grade-box", Kind: schema.ViewBoxPlot, Column: "G3"},
		},
		Heatmap:  []schema.BinMeta{{Column: "Medu", Bins: 5}, {Column: "sex", Bins: 2}},
		Radar:    []string{"Medu", "score"},
		Parallel: []string{"Medu", "score", "G3"},
	}
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(tenRows(t), testDashboard(), opts...)
	require.NoError(t, err)
	return s
}

func pointEvent(viewID string, rows ...int) Event {
	return Event{ViewID: viewID, Kind: PointSelection, Points: rows}
}

func clearEvent(viewID string) Event {
	return Event{ViewID: viewID, Kind: Clear}
}

func subset(viewID string, rows ...int) ViewSelection {
	sel, err := ApplySelectionEvent(viewID, rows, 1<<20)
	if err != nil {
		panic(err)
	}
	if sel.Mode == ModeAll {
		// ApplySelectionEvent resets on an empty list; tests want an explicit empty SUBSET.
		sel.Mode = ModeSubset
		sel.Indices = nil
	}
	return sel
}
