package engine

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/aclements/go-moremath/stats"
)

// ============================================================================
// BINNER — Uniform-Width Discretization over a Row Scope
// ============================================================================
// Edges are scope-relative: [min, max] is computed over the rows in view,
// not over the whole table. Intervals are half-open except the last, which
// is closed on the right, so the maximum value always lands in bin n-1.
// Rows are assigned against the reported Edges, so a value equal to
// Edges[k] is always in bin k.
//
// Empty scope and zero-variance scope both yield all-zero counts.
// ============================================================================

// Bin discretizes column over the rows of view into binCount bins.
func Bin(view RowView, column string, binCount int) (*BinStatistics, error) {
	if binCount < 1 {
		return nil, invalidBinCount(column, binCount)
	}
	values, err := columnOf(view, column)
	if err != nil {
		return nil, err
	}

	st := &BinStatistics{
		Spec: BinSpec{
			Column:   column,
			BinCount: binCount,
			Strategy: UniformWidth,
		},
		Counts:    make([]int, binCount),
		Fractions: make([]float64, binCount),
		Total:     len(values),
		members:   make([]*roaring.Bitmap, binCount),
	}
	for b := range st.members {
		st.members[b] = roaring.New()
	}
	if len(values) == 0 {
		return st, nil
	}

	lo, hi := stats.Bounds(values)
	st.Spec.Range = []float64{lo, hi}
	st.Edges = binEdges(lo, hi, binCount)
	if lo == hi {
		st.Degenerate = true
		return st, nil
	}

	for i, v := range values {
		b := binIndex(st.Edges, v)
		st.Counts[b]++
		st.members[b].Add(uint32(view.Index(i)))
	}
	for b, c := range st.Counts {
		st.Fractions[b] = float64(c) / float64(st.Total)
	}
	return st, nil
}

// binIndex returns the bin whose [edges[b], edges[b+1]) holds v, clamped
// to the n = len(edges)-1 bins.
func binIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	b := sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
	if b < 0 {
		return 0
	}
	if b >= n {
		return n - 1
	}
	return b
}

// binEdges returns the n+1 boundaries of n equal-width bins over [lo, hi].
func binEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return edges
}
