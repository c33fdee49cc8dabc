package engine

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"

	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// DERIVED VIEW BUILDER — canonical selection → every dependent payload
// ============================================================================
// Global quantities (colour domain, scatter axes, radar ranges, grade
// bands) are fixed once in NewBuilder over the entire table. Build is a
// pure function of the canonical selection.
// ============================================================================

const (
	selectedOpacity   = 1.0
	unselectedOpacity = 0.2
	axisMargin        = 0.1
	colorTicks        = 6
)

// Builder derives dependent-view payloads for one table and dashboard.
type Builder struct {
	table     *Table
	dashboard *schema.Dashboard
	labels    schema.Labeler

	colorDomain [2]float64
	xRange      [2]float64
	yRange      [2]float64
	globalRange map[string][2]float64 // radar attributes
	bands       map[string]*GradeBands
	hasScatter  bool
}

// NewBuilder checks every column the dashboard reads and fixes the global
// quantities. Any unknown or non-numeric column is a ConfigurationError.
func NewBuilder(t *Table, d *schema.Dashboard, labels schema.Labeler) (*Builder, error) {
	if err := d.Validate(); err != nil {
		return nil, &ConfigurationError{Field: "dashboard", Value: d.Name, Reason: "invalid layout", cause: err}
	}
	for _, c := range d.Columns() {
		if _, err := t.Column(c); err != nil {
			return nil, err
		}
	}
	for _, h := range d.Heatmap {
		if h.Bins < 1 {
			return nil, invalidBinCount(h.Column, h.Bins)
		}
	}

	b := &Builder{
		table:       t,
		dashboard:   d,
		labels:      labels,
		globalRange: make(map[string][2]float64, len(d.Radar)),
		bands:       make(map[string]*GradeBands),
	}

	if len(d.ColorDomain) == 2 {
		b.colorDomain = [2]float64{d.ColorDomain[0], d.ColorDomain[1]}
	} else {
		b.colorDomain = bounds(t, d.Outcome)
	}

	for _, v := range d.Views {
		switch v.Kind {
		case schema.ViewScatter:
			b.hasScatter = true
		case schema.ViewBoxPlot:
			g, err := NewGradeBands(t, v.Column)
			if err != nil {
				return nil, err
			}
			b.bands[v.ID] = g
		}
	}
	if b.hasScatter {
		b.xRange = withMargin(bounds(t, d.EmbeddingX))
		b.yRange = withMargin(bounds(t, d.EmbeddingY))
	}
	for _, c := range d.Radar {
		b.globalRange[c] = bounds(t, c)
	}
	return b, nil
}

// ColorDomain returns the fixed outcome colour domain.
func (b *Builder) ColorDomain() [2]float64 { return b.colorDomain }

// Bands returns the grade bands of a box-plot view.
func (b *Builder) Bands(viewID string) *GradeBands { return b.bands[viewID] }

// Build derives every payload for the canonical selection c.
func (b *Builder) Build(c CanonicalSelection) (*Derived, error) {
	view := FilteredRows(b.table, c)
	empty := c.IsEmpty()

	d := &Derived{
		Canonical:   c,
		Rows:        viewRows(view),
		View:        view,
		Summary:     BuildSummary(c, b.table.Len()),
		ColorDomain: b.colorDomain,
		BinStats:    make(map[string]*BinStatistics, len(b.dashboard.Heatmap)),
		Histograms:  make(map[string]*BinStatistics),
	}

	for _, h := range b.dashboard.Heatmap {
		st, err := Bin(view, h.Column, h.Bins)
		if err != nil {
			return nil, err
		}
		d.BinStats[h.Column] = st
	}
	if len(b.dashboard.Heatmap) > 0 {
		d.Heatmap = BuildHeatmap(b.dashboard.Heatmap, d.BinStats, b.labels, empty)
	}

	for _, v := range b.dashboard.Views {
		switch v.Kind {
		case schema.ViewHistogram:
			st, err := Bin(view, v.Column, v.Bins)
			if err != nil {
				return nil, err
			}
			d.Histograms[v.ID] = st
		case schema.ViewBoxPlot:
			bp, err := b.boxPlot(view, v)
			if err != nil {
				return nil, err
			}
			if d.BoxPlots == nil {
				d.BoxPlots = make(map[string]*BoxPlotPayload)
			}
			d.BoxPlots[v.ID] = bp
		}
	}

	if b.hasScatter {
		d.Scatter = b.scatter(c)
	}
	if len(b.dashboard.Radar) > 0 {
		d.Radar = b.radar(view)
	}
	if len(b.dashboard.Parallel) > 0 {
		d.Parallel = b.parallel(view)
	}
	return d, nil
}

// ============================================================================
// PAYLOADS
// ============================================================================

// scatter keeps every row so unselected points stay visible but faded.
func (b *Builder) scatter(c CanonicalSelection) *ScatterPayload {
	d := b.dashboard
	n := b.table.Len()
	sp := &ScatterPayload{
		XColumn:     d.EmbeddingX,
		YColumn:     d.EmbeddingY,
		ColorColumn: d.Outcome,
		XRange:      b.xRange,
		YRange:      b.yRange,
		ColorDomain: b.colorDomain,
		Points:      make([]ScatterPoint, n),
		Empty:       c.IsEmpty(),
	}
	for i := 0; i < n; i++ {
		selected := c.Contains(i)
		opacity := unselectedOpacity
		if selected {
			opacity = selectedOpacity
		}
		sp.Points[i] = ScatterPoint{
			Row:      i,
			X:        b.table.Value(i, d.EmbeddingX),
			Y:        b.table.Value(i, d.EmbeddingY),
			Color:    b.table.Value(i, d.Outcome),
			Opacity:  opacity,
			Selected: selected && c.Mode == ModeSubset,
		}
	}
	return sp
}

func (b *Builder) radar(view RowView) *RadarPayload {
	attrs := b.dashboard.Radar
	rp := &RadarPayload{
		Attributes: append([]string(nil), attrs...),
		Labels:     make([]string, len(attrs)),
		Means:      make([]float64, len(attrs)),
		Normalized: make([]float64, len(attrs)),
		Empty:      view.Len() == 0,
	}
	for i, a := range attrs {
		rp.Labels[i] = b.labels.Title(a)
		if rp.Empty {
			continue
		}
		values, _ := columnOf(view, a)
		mean := stats.Mean(values)
		rp.Means[i] = mean
		rp.Normalized[i] = normalize(mean, b.globalRange[a])
	}
	return rp
}

func (b *Builder) parallel(view RowView) *ParallelPayload {
	dims := b.dashboard.Parallel
	pp := &ParallelPayload{
		Dimensions:  append([]string(nil), dims...),
		Labels:      make([]string, len(dims)),
		Rows:        viewRows(view),
		Values:      make([][]float64, len(dims)),
		ColorDomain: b.colorDomain,
		Ticks:       ticks(b.colorDomain),
		Empty:       view.Len() == 0,
	}
	for i, dim := range dims {
		pp.Labels[i] = b.labels.Title(dim)
		pp.Values[i], _ = columnOf(view, dim)
	}
	pp.Color, _ = columnOf(view, b.dashboard.Outcome)
	return pp
}

func (b *Builder) boxPlot(view RowView, v schema.ViewMeta) (*BoxPlotPayload, error) {
	values, err := columnOf(view, v.Column)
	if err != nil {
		return nil, err
	}
	g := b.bands[v.ID]
	if g == nil {
		return nil, fmt.Errorf("box plot %q has no grade bands", v.ID)
	}
	return &BoxPlotPayload{
		Column: v.Column,
		Scope:  boxStats(values),
		Bands:  *g,
		Empty:  len(values) == 0,
	}, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func viewRows(view RowView) []int {
	if sv, ok := view.(*SubView); ok {
		return sv.Rows()
	}
	rows := make([]int, view.Len())
	for i := range rows {
		rows[i] = view.Index(i)
	}
	return rows
}

// bounds returns [min, max] of a column over the whole table; [0, 0] when
// the table is empty. The column is known to exist.
func bounds(t *Table, column string) [2]float64 {
	values, _ := t.Column(column)
	if len(values) == 0 {
		return [2]float64{}
	}
	lo, hi := stats.Bounds(values)
	return [2]float64{lo, hi}
}

func withMargin(r [2]float64) [2]float64 {
	m := (r[1] - r[0]) * axisMargin
	return [2]float64{r[0] - m, r[1] + m}
}

// normalize maps v onto [0, 1] over r. A zero-width range maps to 0.
func normalize(v float64, r [2]float64) float64 {
	if r[0] == r[1] || math.IsNaN(v) {
		return 0
	}
	ls := scale.Linear{Min: r[0], Max: r[1]}
	x := ls.Map(v)
	return math.Max(0, math.Min(1, x))
}

func ticks(domain [2]float64) []float64 {
	if domain[0] == domain[1] {
		return []float64{domain[0]}
	}
	ls := scale.Linear{Min: domain[0], Max: domain[1]}
	major, _ := ls.Ticks(scale.TickOptions{Max: colorTicks})
	return major
}
