package translator

import "encoding/json"

// ============================================================================
// TRANSLATOR — UI boundary for raw selection payloads → engine.Event
// ============================================================================
// The translator is the ONLY component that knows the UI's wire formats.
// It receives what the plotting front end reports (plotly selectedData,
// slider values, checklist values) and returns engine events. It never
// validates rows against the table; the Session does that.
// ============================================================================

// SelectedData mirrors plotly's selectedData callback payload.
type SelectedData struct {
	Points []SelectedPoint `json:"points"`
	Range  *SelectedRange  `json:"range,omitempty"`
	Lasso  *SelectedRange  `json:"lassoPoints,omitempty"`
}

// SelectedPoint is one entry of selectedData.points. Scatter traces report
// pointIndex (older plotly versions only pointNumber). Histogram traces
// report binNumber; bar traces drawn from BinStatistics.Counts report the
// bar's pointNumber. pointNumbers are positions in the trace's own data,
// which is the filtered scope, so they are never read as table rows.
// Renderers that need row ids put them in customdata.
type SelectedPoint struct {
	CurveNumber  int             `json:"curveNumber"`
	PointIndex   *int            `json:"pointIndex,omitempty"`
	PointNumber  *int            `json:"pointNumber,omitempty"`
	BinNumber    *int            `json:"binNumber,omitempty"`
	PointNumbers []int           `json:"pointNumbers,omitempty"`
	CustomData   json.RawMessage `json:"customdata,omitempty"` // row id, or [row id, ...]
}

// SelectedRange is the box-select rectangle (or lasso polygon) in data units.
type SelectedRange struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}
