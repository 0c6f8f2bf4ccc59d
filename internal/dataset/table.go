// Package dataset provides the column-oriented Table used by every check and
// the Dataset wrapper that assigns roles (feature, label, index, date) and
// logical types to its columns.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Table is an in-memory, column-oriented table. Cells hold float64, int,
// int64, bool, string, time.Time or nil.
type Table struct {
	names []string
	cols  map[string][]any
	rows  int
}

// NewTable builds a table from named columns. All columns must be the same
// length and names must be unique.
func NewTable(names []string, columns ...[]any) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("table: %d column names for %d columns", len(names), len(columns))
	}

	t := &Table{
		names: make([]string, 0, len(names)),
		cols:  make(map[string][]any, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("table: column %d has an empty name", i)
		}
		if _, dup := t.cols[name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", name)
		}
		if i == 0 {
			t.rows = len(columns[i])
		} else if len(columns[i]) != t.rows {
			return nil, fmt.Errorf("table: column %q has %d rows, expected %d", name, len(columns[i]), t.rows)
		}
		t.names = append(t.names, name)
		t.cols[name] = columns[i]
	}
	return t, nil
}

// FromRows builds a table from row-oriented records.
func FromRows(names []string, rows [][]any) (*Table, error) {
	columns := make([][]any, len(names))
	for j := range columns {
		columns[j] = make([]any, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("table: row %d has %d values, expected %d", i, len(row), len(names))
		}
		for j, v := range row {
			columns[j][i] = v
		}
	}
	return NewTable(names, columns...)
}

// Columns returns the column names in declared order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the raw values of a column. The slice is shared with the table.
func (t *Table) Column(name string) ([]any, bool) {
	v, ok := t.cols[name]
	return v, ok
}

// Floats coerces a column to float64. Missing values and non-numeric cells are errors.
func (t *Table) Floats(name string) ([]float64, error) {
	values, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("table: no column %q", name)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := ToFloat(v)
		if !ok || math.IsNaN(f) {
			return nil, fmt.Errorf("table: column %q row %d: %v is not numeric", name, i, v)
		}
		out[i] = f
	}
	return out, nil
}

// Select returns a new table holding only the named columns, in the given order.
// Column slices are shared with the receiver.
func (t *Table) Select(names ...string) (*Table, error) {
	columns := make([][]any, 0, len(names))
	for _, n := range names {
		values, ok := t.cols[n]
		if !ok {
			return nil, fmt.Errorf("table: no column %q", n)
		}
		columns = append(columns, values)
	}
	return NewTable(names, columns...)
}

// Copy returns a deep copy of the table's column slices.
func (t *Table) Copy() *Table {
	c := &Table{
		names: t.Columns(),
		cols:  make(map[string][]any, len(t.cols)),
		rows:  t.rows,
	}
	for name, values := range t.cols {
		dup := make([]any, len(values))
		copy(dup, values)
		c.cols[name] = dup
	}
	return c
}

// SetColumn replaces the values of an existing column. Callers use it on copies;
// a Dataset never mutates its table.
func (t *Table) SetColumn(name string, values []any) error {
	if _, ok := t.cols[name]; !ok {
		return fmt.Errorf("table: no column %q", name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("table: column %q needs %d values, got %d", name, t.rows, len(values))
	}
	t.cols[name] = values
	return nil
}

// Fill returns n copies of v, convenient for SetColumn.
func Fill(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ToFloat converts a numeric cell to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// isMissing reports whether v counts as an absent value.
func isMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case time.Time:
		return x.IsZero()
	}
	return false
}
