package schema

// ============================================================================
// SCHEMA — Describes the shape of a dataset for the engine and dashboards
// ============================================================================
// Auto-discovered from a loaded table (DiscoverFromTable) or written by hand.
// The engine uses column kinds to decide what can be binned; the labels
// catalog turns bin indices into human-readable hover text.
// ============================================================================

// Kind classifies a column by how dashboards may use it.
type Kind string

const (
	KindNumeric     Kind = "numeric"     // continuous, e.g. absences, G3
	KindOrdinal     Kind = "ordinal"     // small integer scale, e.g. Medu 0-4
	KindBinary      Kind = "binary"      // 0/1 coded, e.g. sex, higher
	KindEmbedding   Kind = "embedding"   // precomputed projection axis, e.g. tsne-1
	KindCategorical Kind = "categorical" // strings; never binned
)

// Binnable reports whether values of this kind can be discretized.
func (k Kind) Binnable() bool {
	return k != KindCategorical && k != ""
}

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Columns []ColumnMeta `json:"columns" yaml:"columns"`
	Rows    int          `json:"rows" yaml:"rows"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" yaml:"discoveredAt,omitempty"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skippedColumns,omitempty"`
}

// ColumnMeta describes one column of the RowTable.
type ColumnMeta struct {
	Key          string   `json:"key" yaml:"key"`
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Kind         Kind     `json:"kind" yaml:"kind"`
	Min          float64  `json:"min" yaml:"min"`
	Max          float64  `json:"max" yaml:"max"`
	Cardinality  int      `json:"cardinality" yaml:"cardinality"`
	SampleValues []string `json:"sampleValues,omitempty" yaml:"sampleValues,omitempty"`
	Levels       []string `json:"levels,omitempty" yaml:"levels,omitempty"` // bin index → label
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column" yaml:"column"`
	Reason      string `json:"reason" yaml:"reason"`
	Recoverable bool   `json:"recoverable" yaml:"recoverable"` // Can be restored if consumer overrides
}

// ColumnKeys returns all column keys in table order.
func (c Config) ColumnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		keys[i] = col.Key
	}
	return keys
}

// Column looks up a column by key.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// KeysOfKind returns the keys of every column of the given kind.
func (c Config) KeysOfKind(kind Kind) []string {
	var keys []string
	for _, col := range c.Columns {
		if col.Kind == kind {
			keys = append(keys, col.Key)
		}
	}
	return keys
}
