package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/aclements/go-moremath/stats"
)

// ============================================================================
// QUARTILES — Box-plot statistics and grade bands
// ============================================================================
// Grade bands are fixed at session start over the entire table so a band
// name always selects the same students. The box-plot payload reports the
// same statistics recomputed over the current scope.
// ============================================================================

// Band names accepted by BAND_SELECTION events.
const (
	BandOutliers    = "outliers"     // v < lower fence or v > upper fence
	BandLower25     = "lower_25"     // v < Q1
	BandLowerMiddle = "lower_middle" // Q1 <= v < Q2
	BandUpperMiddle = "upper_middle" // Q2 <= v < Q3
	BandUpper25     = "upper_25"     // v > Q3
	BandWithinIQR   = "within_iqr"   // Q1 <= v <= Q3
)

// BandNames lists every band in display order.
var BandNames = []string{BandOutliers, BandLower25, BandLowerMiddle, BandUpperMiddle, BandUpper25, BandWithinIQR}

// BoxStats are the five-number summary plus Tukey fences.
type BoxStats struct {
	Count      int     `json:"count"`
	Min        float64 `json:"min"`
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	Max        float64 `json:"max"`
	IQR        float64 `json:"iqr"`
	LowerFence float64 `json:"lowerFence"`
	UpperFence float64 `json:"upperFence"`
}

// GradeBands partitions the rows of a table by quartile band of one column.
type GradeBands struct {
	Column string         `json:"column"`
	Stats  BoxStats       `json:"stats"`
	Counts map[string]int `json:"counts"`

	members map[string]*roaring.Bitmap
}

// boxStats computes quartiles by linear interpolation between order
// statistics (h = (n-1)q), the default of pandas and R type 7.
// values is not modified.
func boxStats(values []float64) BoxStats {
	if len(values) == 0 {
		return BoxStats{}
	}
	s := stats.Sample{Xs: append([]float64(nil), values...)}
	s.Sort()

	b := BoxStats{
		Count:  len(values),
		Q1:     quantile(s.Xs, 0.25),
		Median: quantile(s.Xs, 0.5),
		Q3:     quantile(s.Xs, 0.75),
	}
	b.Min, b.Max = s.Bounds()
	b.IQR = b.Q3 - b.Q1
	b.LowerFence = b.Q1 - 1.5*b.IQR
	b.UpperFence = b.Q3 + 1.5*b.IQR
	return b
}

// quantile interpolates the q-quantile of sorted xs.
func quantile(xs []float64, q float64) float64 {
	h := float64(len(xs)-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(xs) {
		return xs[len(xs)-1]
	}
	return xs[i] + (h-lo)*(xs[i+1]-xs[i])
}

// NewGradeBands computes the bands of column over every row of view.
func NewGradeBands(view RowView, column string) (*GradeBands, error) {
	values, err := columnOf(view, column)
	if err != nil {
		return nil, err
	}

	g := &GradeBands{
		Column:  column,
		Stats:   boxStats(values),
		Counts:  make(map[string]int, len(BandNames)),
		members: make(map[string]*roaring.Bitmap, len(BandNames)),
	}
	for _, name := range BandNames {
		g.members[name] = roaring.New()
	}

	st := g.Stats
	for i, v := range values {
		row := uint32(view.Index(i))
		if v < st.LowerFence || v > st.UpperFence {
			g.members[BandOutliers].Add(row)
		}
		switch {
		case v < st.Q1:
			g.members[BandLower25].Add(row)
		case v < st.Median:
			g.members[BandLowerMiddle].Add(row)
		case v < st.Q3:
			g.members[BandUpperMiddle].Add(row)
		}
		if v > st.Q3 {
			g.members[BandUpper25].Add(row)
		}
		if v >= st.Q1 && v <= st.Q3 {
			g.members[BandWithinIQR].Add(row)
		}
	}
	for name, b := range g.members {
		g.Counts[name] = int(b.GetCardinality())
	}
	return g, nil
}

// Rows returns the union of the named bands. Names are case-insensitive.
// The second result is the first unknown name, if any.
func (g *GradeBands) Rows(bands []string) (*roaring.Bitmap, string) {
	out := roaring.New()
	for _, name := range bands {
		b, ok := g.members[strings.ToLower(name)]
		if !ok {
			return nil, name
		}
		out.Or(b)
	}
	return out, ""
}

// Names returns the known band names, sorted.
func (g *GradeBands) Names() []string {
	names := make([]string, 0, len(g.members))
	for name := range g.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
