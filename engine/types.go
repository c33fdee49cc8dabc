package engine

import (
	"encoding/json"

	"github.com/RoaringBitmap/roaring/v2"
)

// ============================================================================
// ENGINE TYPES — Coordinated Multi-View Selection
// ============================================================================
// Row indices are stable 0-based positions in the immutable RowTable.
// Every selection (per view and canonical) is a roaring bitmap of those
// indices plus a Mode: ALL means "no filter", SUBSET means "exactly these".
// ============================================================================

// Mode distinguishes "no filter" from an explicit (possibly empty) subset.
type Mode string

const (
	ModeAll    Mode = "ALL"
	ModeSubset Mode = "SUBSET"
)

// ============================================================================
// EVENTS — Contract between the UI layer and the Session
// ============================================================================

// EventKind names what a raw selection payload contains.
type EventKind string

const (
	PointSelection EventKind = "POINT_SELECTION" // Points are row indices
	BinSelection   EventKind = "BIN_SELECTION"   // Points are bin indices of the view's histogram
	Clear          EventKind = "CLEAR"           // Reset the view to ALL
	RangeSelection EventKind = "RANGE_SELECTION" // Range on the view's column, inclusive
	BandSelection  EventKind = "BAND_SELECTION"  // Named grade bands of a box-plot view
)

// ValueRange is an inclusive [Lo, Hi] interval on a column.
type ValueRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Event is one raw selection gesture on one linked view.
type Event struct {
	ID       string      `json:"id,omitempty"`
	ViewID   string      `json:"viewId"`
	Kind     EventKind   `json:"kind"`
	Points   []int       `json:"points,omitempty"`
	Range    *ValueRange `json:"range,omitempty"`
	Bands    []string    `json:"bands,omitempty"`
	Additive bool        `json:"additive,omitempty"` // union with the view's current subset
}

// Rejection is reported to the UI layer when an event fails validation.
type Rejection struct {
	EventID string    `json:"eventId"`
	ViewID  string    `json:"viewId"`
	Kind    EventKind `json:"kind"`
	Reason  string    `json:"reason"`
}

// ============================================================================
// SELECTIONS
// ============================================================================

// ViewSelection is one view's current filter.
type ViewSelection struct {
	ViewID  string
	Mode    Mode
	Indices *roaring.Bitmap // nil or empty when Mode == ModeAll
}

// AllSelection returns the initial state of a view.
func AllSelection(viewID string) ViewSelection {
	return ViewSelection{ViewID: viewID, Mode: ModeAll}
}

// Rows returns the selected row indices in ascending order.
func (s ViewSelection) Rows() []int {
	return bitmapRows(s.Indices)
}

func (s ViewSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ViewID  string `json:"viewId"`
		Mode    Mode   `json:"mode"`
		Indices []int  `json:"indices"`
	}{s.ViewID, s.Mode, s.Rows()})
}

// CanonicalSelection is the intersection of all SUBSET view selections.
type CanonicalSelection struct {
	Mode    Mode
	Indices *roaring.Bitmap
}

// Len returns the number of selected rows, or -1 for ModeAll.
func (c CanonicalSelection) Len() int {
	if c.Mode == ModeAll {
		return -1
	}
	if c.Indices == nil {
		return 0
	}
	return int(c.Indices.GetCardinality())
}

// Contains reports whether row i is in scope.
func (c CanonicalSelection) Contains(i int) bool {
	if c.Mode == ModeAll {
		return true
	}
	return c.Indices != nil && i >= 0 && c.Indices.Contains(uint32(i))
}

// IsEmpty reports the "no rows in scope" state: a SUBSET with no indices.
func (c CanonicalSelection) IsEmpty() bool {
	return c.Mode == ModeSubset && c.Len() == 0
}

// Rows returns the selected row indices in ascending order (nil for ModeAll).
func (c CanonicalSelection) Rows() []int {
	return bitmapRows(c.Indices)
}

func (c CanonicalSelection) MarshalJSON() ([]byte, error) {
	rows := c.Rows()
	if c.Mode == ModeSubset && rows == nil {
		rows = []int{}
	}
	return json.Marshal(struct {
		Mode    Mode  `json:"mode"`
		Indices []int `json:"indices"`
	}{c.Mode, rows})
}

func bitmapRows(b *roaring.Bitmap) []int {
	if b == nil {
		return nil
	}
	rows := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}

// ============================================================================
// BINNING
// ============================================================================

// UniformWidth is the only supported binning strategy.
const UniformWidth = "UNIFORM_WIDTH"

// BinSpec describes how a column was discretized for one scope.
type BinSpec struct {
	Column   string    `json:"column"`
	BinCount int       `json:"binCount"`
	Strategy string    `json:"strategy"`
	Range    []float64 `json:"range,omitempty"` // [min, max] over the scope; nil for an empty scope
}

// BinStatistics holds per-bin counts and fractions for one scope.
type BinStatistics struct {
	Spec       BinSpec   `json:"spec"`
	Counts     []int     `json:"counts"`
	Fractions  []float64 `json:"fractions"`
	Edges      []float64 `json:"edges,omitempty"`
	Total      int       `json:"total"`      // rows in scope
	Degenerate bool      `json:"degenerate"` // min == max, all counts forced to zero

	members []*roaring.Bitmap
}

// Members returns the row indices that fell into bin b.
func (s *BinStatistics) Members(b int) []int {
	if s == nil || b < 0 || b >= len(s.members) {
		return nil
	}
	return bitmapRows(s.members[b])
}

// ============================================================================
// DERIVED PAYLOADS — render-ready, renderer-agnostic
// ============================================================================

// Summary is the "Selected Points" line under the scatter plot.
type Summary struct {
	Selected int     `json:"selected"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
	Text     string  `json:"text"`
}

// ScatterPoint is one embedded row.
type ScatterPoint struct {
	Row      int     `json:"row"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    float64 `json:"color"`
	Opacity  float64 `json:"opacity"`
	Selected bool    `json:"selected"`
}

// ScatterPayload drives the 2-D projection view.
type ScatterPayload struct {
	XColumn     string         `json:"xColumn"`
	YColumn     string         `json:"yColumn"`
	ColorColumn string         `json:"colorColumn"`
	XRange      [2]float64     `json:"xRange"`
	YRange      [2]float64     `json:"yRange"`
	ColorDomain [2]float64     `json:"colorDomain"`
	Points      []ScatterPoint `json:"points"`
	Empty       bool           `json:"empty"`
}

// HeatmapPayload is an attribute × bin matrix of normalized fractions.
type HeatmapPayload struct {
	Attributes []string    `json:"attributes"`
	Titles     []string    `json:"titles"`
	Bins       int         `json:"bins"`
	Values     [][]float64 `json:"values"` // [attribute][bin]
	Text       [][]string  `json:"text"`
	Hover      [][]string  `json:"hover"`
	Empty      bool        `json:"empty"`
}

// RadarPayload holds per-attribute means of the selection.
type RadarPayload struct {
	Attributes []string  `json:"attributes"`
	Labels     []string  `json:"labels"`
	Means      []float64 `json:"means"`
	Normalized []float64 `json:"normalized"` // means mapped onto each attribute's global range
	Empty      bool      `json:"empty"`
}

// ParallelPayload holds the filtered rows for parallel coordinates.
type ParallelPayload struct {
	Dimensions  []string    `json:"dimensions"`
	Labels      []string    `json:"labels"`
	Rows        []int       `json:"rows"`
	Values      [][]float64 `json:"values"` // [dimension][row]
	Color       []float64   `json:"color"`
	ColorDomain [2]float64  `json:"colorDomain"`
	Ticks       []float64   `json:"ticks"`
	Empty       bool        `json:"empty"`
}

// BoxPlotPayload holds quartiles over the scope plus the fixed grade bands.
type BoxPlotPayload struct {
	Column string     `json:"column"`
	Scope  BoxStats   `json:"scope"`
	Bands  GradeBands `json:"bands"`
	Empty  bool       `json:"empty"`
}

// Derived is everything the dependent views need for one canonical selection.
type Derived struct {
	Canonical   CanonicalSelection         `json:"canonical"`
	Rows        []int                      `json:"rows"`
	View        RowView                    `json:"-"` // filtered rows (zero-copy)
	Summary     Summary                    `json:"summary"`
	ColorDomain [2]float64                 `json:"colorDomain"`
	BinStats    map[string]*BinStatistics  `json:"binStats"`   // per configured heatmap attribute
	Histograms  map[string]*BinStatistics  `json:"histograms"` // per histogram view
	Scatter     *ScatterPayload            `json:"scatter,omitempty"`
	Heatmap     *HeatmapPayload            `json:"heatmap,omitempty"`
	Radar       *RadarPayload              `json:"radar,omitempty"`
	Parallel    *ParallelPayload           `json:"parallel,omitempty"`
	BoxPlots    map[string]*BoxPlotPayload `json:"boxPlots,omitempty"`
}

// Update is the result of one fully processed event.
type Update struct {
	EventID    string                   `json:"eventId,omitempty"`
	Selections map[string]ViewSelection `json:"selections"`
	Derived    *Derived                 `json:"derived"`
}
