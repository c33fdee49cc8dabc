package engine

import (
	"fmt"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// ============================================================================
// ROW VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never mutates consumer data. It reads through this interface.
//
// Implementations:
//   Table    the immutable RowTable, backed by a go-gg table.Table
//   SubView  filtered subset (original row indices, zero-copy)
//
// Numeric-like columns (int, float, bool) are converted to []float64 once
// when the Table is built; the Binner reads them millions of times.
// ============================================================================

// RowView provides indexed access to a set of rows.
type RowView interface {
	Len() int
	Index(i int) int                    // original row index of the i-th row
	Value(i int, column string) float64 // 0 for unknown or non-numeric columns
	Columns() []string
}

// ============================================================================
// TABLE — the RowTable
// ============================================================================

// Table is the immutable, row-indexed dataset shared by every component.
type Table struct {
	src     *table.Table
	columns []string
	numeric map[string][]float64
}

// NewTable wraps a go-gg table. String columns are kept for display but are
// not numeric-like and are rejected by the Binner.
func NewTable(src *table.Table) (*Table, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source table")
	}
	t := &Table{
		src:     src,
		columns: src.Columns(),
		numeric: make(map[string][]float64, len(src.Columns())),
	}
	for _, name := range t.columns {
		if col, ok := toFloats(src.Column(name)); ok {
			t.numeric[name] = col
		}
	}
	return t, nil
}

// BuildTable builds a Table from alternating name/column pairs:
//
//	BuildTable("G3", []int{5, 10}, "tsne-1", []float64{0.1, 0.2})
func BuildTable(pairs ...interface{}) (*Table, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("BuildTable: odd number of arguments")
	}
	b := new(table.Builder)
	rows := -1
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("BuildTable: argument %d is not a column name", i)
		}
		rv := reflect.ValueOf(pairs[i+1])
		if rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("BuildTable: column %q is not a slice", name)
		}
		if rows >= 0 && rv.Len() != rows {
			return nil, fmt.Errorf("BuildTable: column %q has %d rows, want %d", name, rv.Len(), rows)
		}
		rows = rv.Len()
		b.Add(name, pairs[i+1])
	}
	return NewTable(b.Done())
}

func (t *Table) Len() int             { return t.src.Len() }
func (t *Table) Index(i int) int      { return i }
func (t *Table) Columns() []string    { return t.columns }
func (t *Table) Source() *table.Table { return t.src }

// HasColumn reports whether the table has a column of any type named c.
func (t *Table) HasColumn(c string) bool { return t.src.Column(c) != nil }

func (t *Table) Value(i int, column string) float64 {
	col := t.numeric[column]
	if i < 0 || i >= len(col) {
		return 0
	}
	return col[i]
}

// Column returns the numeric values of column for every row.
func (t *Table) Column(column string) ([]float64, error) {
	if col, ok := t.numeric[column]; ok {
		return col, nil
	}
	if t.HasColumn(column) {
		return nil, &ConfigurationError{Field: "column", Value: column, Reason: "not numeric"}
	}
	return nil, unknownColumn(column)
}

// Select returns a zero-copy view of rows, in the order given.
func (t *Table) Select(rows []int) *SubView {
	return &SubView{parent: t, indices: rows}
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a Table.
// Holds original row indices; rows are not copied.
type SubView struct {
	parent  *Table
	indices []int
}

func (v *SubView) Len() int          { return len(v.indices) }
func (v *SubView) Columns() []string { return v.parent.Columns() }
func (v *SubView) Rows() []int       { return v.indices }

func (v *SubView) Index(i int) int {
	if i < 0 || i >= len(v.indices) {
		return -1
	}
	return v.indices[i]
}

func (v *SubView) Value(i int, column string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Value(v.indices[i], column)
}

// Column returns the numeric values of column restricted to the view.
func (v *SubView) Column(column string) ([]float64, error) {
	col, err := v.parent.Column(column)
	if err != nil {
		return nil, err
	}
	return slice.Select(col, v.indices).([]float64), nil
}

// ============================================================================
// HELPERS
// ============================================================================

// columnOf reads a column from any RowView, using the fast paths when
// the view is a Table or SubView.
func columnOf(view RowView, column string) ([]float64, error) {
	switch v := view.(type) {
	case *Table:
		return v.Column(column)
	case *SubView:
		return v.Column(column)
	}
	out := make([]float64, view.Len())
	for i := range out {
		out[i] = view.Value(i, column)
	}
	return out, nil
}

// toFloats converts a numeric-like go-gg column to []float64.
func toFloats(col interface{}) ([]float64, bool) {
	if col == nil {
		return nil, false
	}
	rv := reflect.ValueOf(col)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	switch rv.Type().Elem().Kind() {
	case reflect.Bool:
		out := make([]float64, rv.Len())
		for i := range out {
			if rv.Index(i).Bool() {
				out[i] = 1
			}
		}
		return out, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		var out []float64
		slice.Convert(&out, col)
		return out, true
	}
	return nil, false
}
