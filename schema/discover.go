package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
)

// ============================================================================
// AUTO-DISCOVERY — Column kind classification
// ============================================================================
// Inspects a loaded table and generates a schema.Config automatically.
//
// Classification pipeline per column:
//   1. Column type → numeric ([]int, []float64, []bool) or categorical ([]string)
//   2. Name patterns → embedding axes (tsne-1, umap-2, pc1 …)
//   3. Distinct values → binary ({0,1}), ordinal (few integer levels), numeric
//   4. Bounds, cardinality and sample values for every kept column
//   5. Bin-level labels from the built-in catalog
//
// String columns unique per row are skipped (identifiers); constant columns
// are skipped but recoverable.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize       int      // Max rows to inspect (0 = all)
	MaxOrdinalLevels int      // Integer columns with at most this many levels are ordinal. Default: 5
	EmbeddingColumns []string // Force these columns to KindEmbedding
	RecoverColumns   []string // Force-include columns that were auto-skipped
	Name             string   // Dataset name override
	Source           string   // Recorded in DiscoveredFrom
}

// DefaultDiscoverOptions returns sensible defaults for the student dataset.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		MaxOrdinalLevels: 5,
		Source:           "table",
	}
}

var embeddingPrefixes = []string{"tsne", "t-sne", "umap", "pca", "pc"}

// DiscoverFromTable generates a schema.Config by inspecting every column of t.
func DiscoverFromTable(t *table.Table, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.MaxOrdinalLevels <= 0 {
			opt.MaxOrdinalLevels = 5
		}
	}
	if t == nil || len(t.Columns()) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("table has no data rows")
	}

	rows := t.Len()
	if opt.SampleSize > 0 && opt.SampleSize < rows {
		rows = opt.SampleSize
	}

	recoverSet := lowerSet(opt.RecoverColumns)
	embedSet := lowerSet(opt.EmbeddingColumns)

	config := &Config{
		Name:           opt.Name,
		Version:        "1.0",
		Rows:           t.Len(),
		DiscoveredFrom: opt.Source,
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	for _, name := range t.Columns() {
		col := analyzeColumn(name, t.Column(name), rows, opt, embedSet[strings.ToLower(name)])
		if col.skipReason != "" && !recoverSet[strings.ToLower(name)] {
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      name,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
			continue
		}
		config.Columns = append(config.Columns, col.meta)
	}

	if len(config.Columns) == 0 {
		return nil, fmt.Errorf("no usable columns (%d skipped)", len(config.SkippedColumns))
	}
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	meta        ColumnMeta
	skipReason  string
	recoverable bool
}

// analyzeColumn inspects the first n values of a column and classifies it.
func analyzeColumn(name string, data interface{}, n int, opt DiscoverOptions, forceEmbedding bool) columnAnalysis {
	col := columnAnalysis{meta: ColumnMeta{
		Key:         name,
		DisplayName: displayName(name),
		Levels:      Levels(name),
	}}

	values, isInt, ok := numericValues(data, n)
	if !ok {
		strs, _ := data.([]string)
		if len(strs) > n {
			strs = strs[:n]
		}
		col.classifyStrings(strs)
		return col
	}
	if len(values) == 0 {
		col.skipReason = "All values are empty"
		return col
	}

	unique := make(map[float64]bool)
	for _, v := range values {
		unique[v] = true
	}
	lo, hi := stats.Bounds(values)

	col.meta.Min, col.meta.Max = lo, hi
	col.meta.Cardinality = len(unique)
	col.meta.SampleValues = numericSamples(unique, 10)

	switch {
	case forceEmbedding || isEmbeddingName(name):
		col.meta.Kind = KindEmbedding
	case len(unique) == 1:
		col.meta.Kind = KindNumeric
		col.skipReason = fmt.Sprintf("Single value (%g) across all rows", lo)
		col.recoverable = true
	case isBinary(unique):
		col.meta.Kind = KindBinary
	case isInt && len(unique) <= opt.MaxOrdinalLevels:
		col.meta.Kind = KindOrdinal
	default:
		col.meta.Kind = KindNumeric
	}
	return col
}

// classifyStrings handles columns the loader could not coerce to numbers.
func (col *columnAnalysis) classifyStrings(values []string) {
	col.meta.Kind = KindCategorical

	unique := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		unique[v] = true
	}
	col.meta.Cardinality = len(unique)

	samples := make([]string, 0, len(unique))
	for v := range unique {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > 10 {
		samples = samples[:10]
	}
	col.meta.SampleValues = samples

	switch {
	case len(unique) == 0:
		col.skipReason = "All values are empty"
	case len(unique) == len(values) && len(values) > 10:
		col.skipReason = "Unique per row — likely an identifier"
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// numericValues converts the first n values of a go-gg column to float64.
// isInt is true for integer and boolean columns.
func numericValues(data interface{}, n int) (values []float64, isInt bool, ok bool) {
	switch col := data.(type) {
	case []float64:
		values = append(values, col[:min(n, len(col))]...)
		isInt = true
		for _, v := range values {
			if v != math.Trunc(v) {
				isInt = false
				break
			}
		}
		return values, isInt, true
	case []int:
		for _, v := range col[:min(n, len(col))] {
			values = append(values, float64(v))
		}
		return values, true, true
	case []int64:
		for _, v := range col[:min(n, len(col))] {
			values = append(values, float64(v))
		}
		return values, true, true
	case []bool:
		for _, v := range col[:min(n, len(col))] {
			if v {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}
		return values, true, true
	}
	return nil, false, false
}

func isBinary(unique map[float64]bool) bool {
	if len(unique) != 2 {
		return false
	}
	return unique[0] && unique[1]
}

func isEmbeddingName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range embeddingPrefixes {
		rest := strings.TrimPrefix(lower, p)
		if rest == lower {
			continue
		}
		rest = strings.TrimLeft(rest, "-_ ")
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	return false
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// displayName prefers the catalog title, then cleans the header for display.
// "study_time" → "Study Time", "Medu" → "Mother Education Level"
func displayName(key string) string {
	if t := Title(key); t != key {
		return t
	}
	if strings.Contains(key, " ") {
		return strings.TrimSpace(key)
	}

	s := strings.ReplaceAll(key, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// numericSamples picks up to maxSamples distinct values in ascending order.
func numericSamples(unique map[float64]bool, maxSamples int) []string {
	vals := make([]float64, 0, len(unique))
	for v := range unique {
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	if len(vals) > maxSamples {
		vals = vals[:maxSamples]
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func lowerSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = true
	}
	return set
}
