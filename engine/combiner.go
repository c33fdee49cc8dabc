package engine

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// ============================================================================
// COMBINER — AND across every active view filter
// ============================================================================
// Views in ModeAll contribute nothing. With no SUBSET views the result is
// ModeAll; otherwise it is the intersection of every SUBSET, which may be
// empty. The result depends only on the map's contents, never on the
// order views were updated.
// ============================================================================

// Combine merges per-view selections into the canonical selection.
func Combine(selections map[string]ViewSelection) CanonicalSelection {
	ids := make([]string, 0, len(selections))
	for id, s := range selections {
		if s.Mode == ModeSubset {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return CanonicalSelection{Mode: ModeAll}
	}
	sort.Strings(ids)

	sets := make([]*roaring.Bitmap, 0, len(ids))
	for _, id := range ids {
		b := selections[id].Indices
		if b == nil || b.IsEmpty() {
			// Short-circuit: one empty filter empties the whole intersection.
			return CanonicalSelection{Mode: ModeSubset, Indices: roaring.New()}
		}
		sets = append(sets, b)
	}
	return CanonicalSelection{Mode: ModeSubset, Indices: roaring.FastAnd(sets...)}
}

// FilteredRows returns the rows in scope, in original table order.
func FilteredRows(t *Table, c CanonicalSelection) RowView {
	if c.Mode == ModeAll {
		return t
	}
	return t.Select(c.Rows())
}
