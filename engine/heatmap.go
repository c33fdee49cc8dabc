package engine

import (
	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// HEATMAP BUILDER — attribute × bin matrix of normalized fractions
// ============================================================================
// Attributes may use different bin counts; the matrix is as wide as the
// largest one and missing cells are 0 with empty text.
// ============================================================================

// BuildHeatmap lays out per-attribute bin statistics as a matrix, one row
// per entry of attrs.
func BuildHeatmap(attrs []schema.BinMeta, stats map[string]*BinStatistics, labels schema.Labeler, empty bool) *HeatmapPayload {
	width := 0
	for _, a := range attrs {
		if a.Bins > width {
			width = a.Bins
		}
	}

	hm := &HeatmapPayload{
		Attributes: make([]string, len(attrs)),
		Titles:     make([]string, len(attrs)),
		Bins:       width,
		Values:     make([][]float64, len(attrs)),
		Text:       make([][]string, len(attrs)),
		Hover:      make([][]string, len(attrs)),
		Empty:      empty,
	}

	for i, a := range attrs {
		hm.Attributes[i] = a.Column
		hm.Titles[i] = labels.Title(a.Column)
		hm.Values[i] = make([]float64, width)
		hm.Text[i] = make([]string, width)
		hm.Hover[i] = make([]string, width)

		st := stats[a.Column]
		if st == nil {
			continue
		}
		for b, f := range st.Fractions {
			hm.Values[i][b] = f
			hm.Text[i][b] = cellText(f)
			hm.Hover[i][b] = hoverText(labels.BinLabel(a.Column, b), f)
		}
	}
	return hm
}
