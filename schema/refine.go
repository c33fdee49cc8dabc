package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// REFINE — Hand-written schema enrichment
// ============================================================================
//
// After discovery produces a draft schema from heuristics, Refine merges
// operator-supplied overrides (from the config file's `schema` block) into
// a copy of it: friendlier display names, descriptions, bin-level labels,
// and corrected kinds for columns the heuristics got wrong.
//
// Rules:
//   - Overrides replace non-empty fields only
//   - Keys cannot change, and unknown keys are an error
//   - Keys match case-insensitively (viper lowercases map keys)
//   - A skipped column named in an override is recovered
// ============================================================================

// Overrides is the refinement document, usually loaded from YAML.
type Overrides struct {
	Name        string                    `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string                    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Columns     map[string]ColumnOverride `json:"columns,omitempty" yaml:"columns,omitempty" mapstructure:"columns"`
}

// ColumnOverride enriches one column.
type ColumnOverride struct {
	DisplayName string   `json:"displayName,omitempty" yaml:"displayName,omitempty" mapstructure:"display_name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Kind        Kind     `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Levels      []string `json:"levels,omitempty" yaml:"levels,omitempty" mapstructure:"levels"`
}

// Empty reports whether o changes nothing.
func (o Overrides) Empty() bool {
	return o.Name == "" && o.Description == "" && len(o.Columns) == 0
}

// Refine returns a copy of draft with the overrides applied.
// The draft is NOT mutated.
func Refine(draft *Config, o Overrides) (*Config, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft schema is nil")
	}

	result := deepCopyConfig(draft)
	if o.Name != "" {
		result.Name = o.Name
	}
	if o.Description != "" {
		result.Description = o.Description
	}

	keys := make([]string, 0, len(o.Columns))
	for k := range o.Columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var problems []string
	for _, key := range keys {
		ov := o.Columns[key]
		if ov.Kind != "" && !ov.Kind.valid() {
			problems = append(problems, fmt.Sprintf("column %q: unknown kind %q", key, ov.Kind))
			continue
		}

		idx := result.columnIndex(key)
		if idx < 0 {
			idx = result.recoverColumn(key)
		}
		if idx < 0 {
			problems = append(problems, fmt.Sprintf("column %q: not in schema", key))
			continue
		}
		applyOverride(&result.Columns[idx], ov)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("refine %q: %s", draft.Name, strings.Join(problems, "; "))
	}

	result.Version = bumpVersion(draft.Version)
	if result.DiscoveredAt == "" {
		result.DiscoveredAt = time.Now().Format(time.RFC3339)
	}
	return result, nil
}

func applyOverride(c *ColumnMeta, ov ColumnOverride) {
	if ov.DisplayName != "" {
		c.DisplayName = ov.DisplayName
	}
	if ov.Description != "" {
		c.Description = ov.Description
	}
	if ov.Kind != "" {
		c.Kind = ov.Kind
	}
	if len(ov.Levels) > 0 {
		c.Levels = append([]string(nil), ov.Levels...)
	}
}

// recoverColumn moves a skipped column back into Columns and returns its index.
func (c *Config) recoverColumn(key string) int {
	for i, s := range c.SkippedColumns {
		if !strings.EqualFold(s.Column, key) {
			continue
		}
		c.SkippedColumns = append(c.SkippedColumns[:i], c.SkippedColumns[i+1:]...)
		c.Columns = append(c.Columns, ColumnMeta{Key: s.Column, DisplayName: displayName(s.Column), Kind: KindNumeric})
		return len(c.Columns) - 1
	}
	return -1
}

func (c *Config) columnIndex(key string) int {
	for i, col := range c.Columns {
		if strings.EqualFold(col.Key, key) {
			return i
		}
	}
	return -1
}

func (k Kind) valid() bool {
	switch k {
	case KindNumeric, KindOrdinal, KindBinary, KindEmbedding, KindCategorical:
		return true
	}
	return false
}

// ============================================================================
// HELPERS
// ============================================================================

func deepCopyConfig(src *Config) *Config {
	dst := *src

	dst.Columns = make([]ColumnMeta, len(src.Columns))
	for i, c := range src.Columns {
		dst.Columns[i] = c
		dst.Columns[i].SampleValues = append([]string(nil), c.SampleValues...)
		dst.Columns[i].Levels = append([]string(nil), c.Levels...)
	}

	dst.SkippedColumns = append([]SkippedColumn(nil), src.SkippedColumns...)
	return &dst
}

// bumpVersion marks a refined schema: "1.0" → "1.0-refined".
func bumpVersion(v string) string {
	if v == "" {
		return "refined"
	}
	if strings.HasSuffix(v, "-refined") {
		return v
	}
	return v + "-refined"
}
