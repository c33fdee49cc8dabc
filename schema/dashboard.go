package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// DASHBOARDS — Data-driven descriptions of linked view layouts
// ============================================================================
// A Dashboard lists the source views that emit selections (scatter,
// histograms, box plots, range sliders) and the dependent panels that
// only consume the canonical selection (heatmap, radar, parallel axes).
// Variants differ only in this data; the pipeline is shared.
// ============================================================================

// ViewKind is the kind of a selection-emitting view.
type ViewKind string

const (
	ViewScatter   ViewKind = "scatter"
	ViewHistogram ViewKind = "histogram"
	ViewBoxPlot   ViewKind = "boxplot"
	ViewRange     ViewKind = "range"
)

// ViewMeta describes one linked view.
type ViewMeta struct {
	ID     string   `json:"id" mapstructure:"id"`
	Kind   ViewKind `json:"kind" mapstructure:"kind"`
	Column string   `json:"column,omitempty" mapstructure:"column"` // binned/filtered column; empty for scatter
	Title  string   `json:"title,omitempty" mapstructure:"title"`
	Bins   int      `json:"bins,omitempty" mapstructure:"bins"` // histogram only
}

// BinMeta is one (attribute, bin_count) pair of the heatmap.
type BinMeta struct {
	Column string `json:"column" mapstructure:"column"`
	Bins   int    `json:"bins" mapstructure:"bins"`
}

// Dashboard describes a dashboard variant.
type Dashboard struct {
	Name        string     `json:"name" mapstructure:"name"`
	Title       string     `json:"title,omitempty" mapstructure:"title"`
	Outcome     string     `json:"outcome" mapstructure:"outcome"` // colour attribute
	EmbeddingX  string     `json:"embeddingX" mapstructure:"embedding_x"`
	EmbeddingY  string     `json:"embeddingY" mapstructure:"embedding_y"`
	ColorDomain []float64  `json:"colorDomain,omitempty" mapstructure:"color_domain"` // pinned [min, max]; computed when empty
	Views       []ViewMeta `json:"views" mapstructure:"views"`
	Heatmap     []BinMeta  `json:"heatmap,omitempty" mapstructure:"heatmap"`
	Radar       []string   `json:"radar,omitempty" mapstructure:"radar"`
	Parallel    []string   `json:"parallel,omitempty" mapstructure:"parallel"`
}

// View looks up a view by id.
func (d *Dashboard) View(id string) (ViewMeta, bool) {
	for _, v := range d.Views {
		if v.ID == id {
			return v, true
		}
	}
	return ViewMeta{}, false
}

// ViewIDs returns every view id in declaration order.
func (d *Dashboard) ViewIDs() []string {
	ids := make([]string, len(d.Views))
	for i, v := range d.Views {
		ids[i] = v.ID
	}
	return ids
}

// Columns returns every column the dashboard reads, deduplicated, sorted.
func (d *Dashboard) Columns() []string {
	seen := map[string]bool{}
	add := func(c string) {
		if c != "" {
			seen[c] = true
		}
	}
	add(d.Outcome)
	add(d.EmbeddingX)
	add(d.EmbeddingY)
	for _, v := range d.Views {
		add(v.Column)
	}
	for _, h := range d.Heatmap {
		add(h.Column)
	}
	for _, c := range d.Radar {
		add(c)
	}
	for _, c := range d.Parallel {
		add(c)
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Validate checks the dashboard's structure. Column existence is checked
// by the engine against the loaded table.
func (d *Dashboard) Validate() error {
	var problems []string
	if d.Outcome == "" {
		problems = append(problems, "outcome column is empty")
	}
	if len(d.ColorDomain) != 0 && (len(d.ColorDomain) != 2 || d.ColorDomain[0] > d.ColorDomain[1]) {
		problems = append(problems, fmt.Sprintf("color_domain %v must be [min, max]", d.ColorDomain))
	}
	seen := make(map[string]bool, len(d.Views))
	for _, v := range d.Views {
		if v.ID == "" {
			problems = append(problems, "view with empty id")
			continue
		}
		if seen[v.ID] {
			problems = append(problems, fmt.Sprintf("duplicate view id %q", v.ID))
		}
		seen[v.ID] = true
		switch v.Kind {
		case ViewScatter:
			if d.EmbeddingX == "" || d.EmbeddingY == "" {
				problems = append(problems, fmt.Sprintf("scatter view %q needs embedding_x and embedding_y", v.ID))
			}
		case ViewHistogram:
			if v.Column == "" {
				problems = append(problems, fmt.Sprintf("histogram view %q has no column", v.ID))
			}
			if v.Bins < 1 {
				problems = append(problems, fmt.Sprintf("histogram view %q: bins must be >= 1, got %d", v.ID, v.Bins))
			}
		case ViewBoxPlot, ViewRange:
			if v.Column == "" {
				problems = append(problems, fmt.Sprintf("%s view %q has no column", v.Kind, v.ID))
			}
		default:
			problems = append(problems, fmt.Sprintf("view %q: unknown kind %q", v.ID, v.Kind))
		}
	}
	for _, h := range d.Heatmap {
		if h.Bins < 1 {
			problems = append(problems, fmt.Sprintf("heatmap attribute %q: bins must be >= 1, got %d", h.Column, h.Bins))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("dashboard %q: %s", d.Name, strings.Join(problems, "; "))
	}
	return nil
}

// ============================================================================
// BUILT-IN VARIANTS
// ============================================================================

var heatmapAttributes = []BinMeta{
	{"Medu", 5}, {"Fedu", 5}, {"failures", 4}, {"studytime", 4}, {"traveltime", 4},
	{"Walc", 5}, {"Dalc", 5}, {"health", 5}, {"famrel", 5}, {"goout", 5}, {"freetime", 5},
}

var variants = map[string]func() *Dashboard{
	"system": func() *Dashboard {
		return &Dashboard{
			Name:        "system",
			Title:       "Interactive t-SNE Visualization",
			Outcome:     "G3",
			EmbeddingX:  "tsne-1",
			EmbeddingY:  "tsne-2",
			ColorDomain: []float64{0, 20},
			Views: []ViewMeta{
				{ID: "tsne-plot", Kind: ViewScatter, Title: "t-SNE Visualization"},
				{ID: "gender-histogram", Kind: ViewHistogram, Column: "sex", Bins: 2, Title: "Gender"},
				{ID: "wants-higher-histogram", Kind: ViewHistogram, Column: "higher", Bins: 2, Title: "Wants higher education"},
				{ID: "parents-together-histogram", Kind: ViewHistogram, Column: "Pstatus", Bins: 2, Title: "Parents together"},
			},
			Heatmap: append([]BinMeta(nil), heatmapAttributes...),
			Radar:   []string{"Medu", "Fedu", "studytime", "traveltime", "failures", "Walc", "Dalc"},
		}
	},
	"boxplots": func() *Dashboard {
		return &Dashboard{
			Name:        "boxplots",
			Title:       "Filtered t-SNE Visualization Based on Final Grade (G3)",
			Outcome:     "G3",
			EmbeddingX:  "tsne-1",
			EmbeddingY:  "tsne-2",
			ColorDomain: []float64{0, 20},
			Views: []ViewMeta{
				{ID: "grade-range", Kind: ViewBoxPlot, Column: "G3", Title: "Final Grade"},
				{ID: "tsne-plot", Kind: ViewScatter, Title: "t-SNE Visualization"},
			},
		}
	},
	"interactive": func() *Dashboard {
		return &Dashboard{
			Name:        "interactive",
			Title:       "Interactive t-SNE Visualization",
			Outcome:     "G3",
			EmbeddingX:  "tsne-1",
			EmbeddingY:  "tsne-2",
			ColorDomain: []float64{0, 20},
			Views: []ViewMeta{
				{ID: "tsne-plot", Kind: ViewScatter, Title: "t-SNE Visualization"},
				{ID: "mother-education-slider", Kind: ViewRange, Column: "Medu", Title: "Mother Education"},
				{ID: "father-education-slider", Kind: ViewRange, Column: "Fedu", Title: "Father Education"},
				{ID: "final-grade-slider", Kind: ViewRange, Column: "G3", Title: "Final Grade"},
				{ID: "age-bargraph", Kind: ViewHistogram, Column: "age", Bins: 8, Title: "Age Distribution"},
			},
		}
	},
	"parallel": func() *Dashboard {
		return &Dashboard{
			Name:        "parallel",
			Title:       "Parallel Coordinates Plot with Balanced Dimensions",
			Outcome:     "G3",
			EmbeddingX:  "tsne-1",
			EmbeddingY:  "tsne-2",
			ColorDomain: []float64{0, 20},
			Views: []ViewMeta{
				{ID: "tsne-plot", Kind: ViewScatter, Title: "t-SNE Visualization"},
			},
			Parallel: []string{
				"studytime", "famsup", "internet", "failures", "romantic", "famrel",
				"freetime", "goout", "Dalc", "absences", "traveltime", "G3",
			},
		}
	},
}

// Variant returns a fresh copy of a built-in dashboard variant.
func Variant(name string) (*Dashboard, error) {
	build, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown dashboard variant %q (available: %s)", name, strings.Join(VariantNames(), ", "))
	}
	return build(), nil
}

// VariantNames lists the built-in variants, sorted.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
