package engine

import (
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// SELECTION — Raw event → ViewSelection
// ============================================================================
// Each view kind owns the translation of its payload into row indices:
//   scatter    POINT_SELECTION  row indices as-is
//   histogram  BIN_SELECTION    bin indices → rows via the view's last bins
//   boxplot    BAND_SELECTION   band names → rows via the fixed grade bands
//   range      RANGE_SELECTION  lo <= value <= hi on the view's column
// Every view accepts CLEAR. An empty payload is an explicit reset to ALL.
// No cross-view checks happen here.
// ============================================================================

var acceptedKinds = map[schema.ViewKind][]EventKind{
	schema.ViewScatter:   {PointSelection, Clear},
	schema.ViewHistogram: {BinSelection, PointSelection, Clear},
	schema.ViewBoxPlot:   {BandSelection, PointSelection, Clear},
	schema.ViewRange:     {RangeSelection, Clear},
}

// Accepts reports whether a view of the given kind handles events of kind k.
func Accepts(view schema.ViewKind, k EventKind) bool {
	for _, a := range acceptedKinds[view] {
		if a == k {
			return true
		}
	}
	return false
}

// ApplySelectionEvent turns a list of row indices into the view's new
// selection. Empty rawPoints resets the view to ALL.
func ApplySelectionEvent(viewID string, rawPoints []int, rowCount int) (ViewSelection, error) {
	if len(rawPoints) == 0 {
		return AllSelection(viewID), nil
	}
	b, err := rowBitmap(viewID, "points", rawPoints, rowCount)
	if err != nil {
		return ViewSelection{}, err
	}
	return ViewSelection{ViewID: viewID, Mode: ModeSubset, Indices: b}, nil
}

// ResolveBins maps histogram bin indices to the rows that fell into them.
func ResolveBins(viewID string, st *BinStatistics, bins []int) (*roaring.Bitmap, error) {
	if st == nil {
		return nil, &ValidationError{ViewID: viewID, Reason: "view has no bins to select"}
	}
	out := roaring.New()
	for _, b := range bins {
		if b < 0 || b >= len(st.members) {
			return nil, &ValidationError{
				ViewID: viewID,
				Field:  "bin",
				Value:  strconv.Itoa(b),
				Reason: fmt.Sprintf("bin index out of range [0, %d)", len(st.members)),
			}
		}
		out.Or(st.members[b])
	}
	return out, nil
}

// ResolveRange returns the rows of view whose column value lies in r.
func ResolveRange(viewID string, view RowView, column string, r ValueRange) (*roaring.Bitmap, error) {
	if r.Lo > r.Hi {
		return nil, &ValidationError{
			ViewID: viewID,
			Field:  "range",
			Value:  fmt.Sprintf("[%g, %g]", r.Lo, r.Hi),
			Reason: "inverted range",
		}
	}
	values, err := columnOf(view, column)
	if err != nil {
		return nil, err
	}
	out := roaring.New()
	for i, v := range values {
		if v >= r.Lo && v <= r.Hi {
			out.Add(uint32(view.Index(i)))
		}
	}
	return out, nil
}

// ResolveBands returns the union of the named grade bands.
func ResolveBands(viewID string, g *GradeBands, bands []string) (*roaring.Bitmap, error) {
	if g == nil {
		return nil, &ValidationError{ViewID: viewID, Reason: "view has no grade bands"}
	}
	rows, unknown := g.Rows(bands)
	if unknown != "" {
		return nil, &ValidationError{ViewID: viewID, Field: "band", Value: unknown, Reason: "unknown grade band"}
	}
	return rows, nil
}

// rowBitmap validates row indices against [0, rowCount).
func rowBitmap(viewID, field string, rows []int, rowCount int) (*roaring.Bitmap, error) {
	b := roaring.New()
	for _, r := range rows {
		if r < 0 || r >= rowCount {
			return nil, &ValidationError{
				ViewID: viewID,
				Field:  field,
				Value:  strconv.Itoa(r),
				Reason: fmt.Sprintf("row index out of range [0, %d)", rowCount),
			}
		}
		b.Add(uint32(r))
	}
	return b, nil
}

// withAdditive unions next into the view's current SUBSET when the event
// asks for it; on an ALL view it is a plain selection.
func withAdditive(current ViewSelection, next *roaring.Bitmap, additive bool) *roaring.Bitmap {
	if !additive || current.Mode != ModeSubset || current.Indices == nil {
		return next
	}
	return roaring.Or(current.Indices, next)
}
