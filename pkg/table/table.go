// Package table provides the in-memory tabular structure every loader
// returns: ordered, dynamically typed columns with an optional identifier
// index and a provenance name.
//
// Cell values are one of string, float64, bool, time.Time, or nil for a
// missing value. Readers normalize driver- and codec-specific types into
// that set with [Normalize].
//
// A Table is not safe for concurrent use.
package table

import (
	"fmt"
	"slices"
	"strings"
)

// Column is a named, ordered sequence of cell values.
type Column struct {
	Name   string
	Values []any
}

// Kind reports the category of the column's values. See [KindOf].
func (c *Column) Kind() Kind { return KindOf(c.Values) }

// Table is an ordered collection of equal-length columns.
type Table struct {
	// Name records where the table came from (a file name or a warehouse
	// table name).
	Name string

	cols  []*Column
	pos   map[string]int
	rows  int
	index string
}

// New returns an empty table.
func New(name string) *Table {
	return &Table{Name: name, pos: make(map[string]int)}
}

// FromColumns builds a table from columns that must all have the same length.
func FromColumns(name string, cols ...*Column) (*Table, error) {
	t := New(name)
	for _, c := range cols {
		if err := t.AddColumn(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustFromColumns is FromColumns for literals in tests and fixtures.
func MustFromColumns(name string, cols ...*Column) *Table {
	t, err := FromColumns(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Col is shorthand for a column literal.
func Col(name string, values ...any) *Column {
	return &Column{Name: name, Values: values}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.pos[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// AddColumn appends a column, or replaces the values of an existing column
// with the same name. The first column fixes the row count.
func (t *Table) AddColumn(name string, values []any) error {
	if len(t.cols) > 0 && len(values) != t.rows {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.rows)
	}
	if i, ok := t.pos[name]; ok {
		t.cols[i].Values = values
		return nil
	}
	if len(t.cols) == 0 {
		t.rows = len(values)
	}
	t.pos[name] = len(t.cols)
	t.cols = append(t.cols, &Column{Name: name, Values: values})
	return nil
}

// Fill sets every row of the named column to v, adding the column if needed.
func (t *Table) Fill(name string, v any) {
	values := make([]any, t.rows)
	for i := range values {
		values[i] = v
	}
	_ = t.AddColumn(name, values)
}

// Rename renames a column. It returns false if old does not exist or new
// is already taken.
func (t *Table) Rename(old, new string) bool {
	i, ok := t.pos[old]
	if !ok {
		return false
	}
	if old == new {
		return true
	}
	if _, taken := t.pos[new]; taken {
		return false
	}
	delete(t.pos, old)
	t.pos[new] = i
	t.cols[i].Name = new
	if t.index == old {
		t.index = new
	}
	return true
}

// RenameFunc applies fn to every column name except skip.
func (t *Table) RenameFunc(skip string, fn func(string) string) {
	for _, name := range t.Columns() {
		if name == skip {
			continue
		}
		t.Rename(name, fn(name))
	}
}

// Upper upper-cases every column name except skip.
func (t *Table) Upper(skip string) { t.RenameFunc(skip, strings.ToUpper) }

// Value returns the value at (row, column).
func (t *Table) Value(row int, name string) any {
	c, ok := t.Column(name)
	if !ok || row < 0 || row >= t.rows {
		return nil
	}
	return c.Values[row]
}

// Row returns a copy of one row keyed by column name.
func (t *Table) Row(i int) map[string]any {
	out := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		out[c.Name] = c.Values[i]
	}
	return out
}

// Filter returns a new table with only the rows for which keep is true.
// The index setting and name carry over.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	out := New(t.Name)
	for _, c := range t.cols {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		out.pos[c.Name] = len(out.cols)
		out.cols = append(out.cols, &Column{Name: c.Name, Values: values})
	}
	out.rows = len(rows)
	out.index = t.index
	return out
}

// Select returns a new table holding the named columns in the given order.
// The index column is kept (first) even if not requested, so the result
// stays keyed. Unknown names are an error.
func (t *Table) Select(names []string) (*Table, error) {
	out := New(t.Name)
	out.rows = t.rows
	add := func(name string) error {
		c, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("column %q not in table %s", name, t.Name)
		}
		if out.Has(name) {
			return nil
		}
		out.pos[name] = len(out.cols)
		out.cols = append(out.cols, &Column{Name: name, Values: slices.Clone(c.Values)})
		return nil
	}
	if t.index != "" {
		if err := add(t.index); err != nil {
			return nil, err
		}
		out.index = t.index
	}
	for _, name := range names {
		if err := add(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone returns a deep copy of the column slices.
func (t *Table) Clone() *Table {
	out := New(t.Name)
	for _, c := range t.cols {
		out.pos[c.Name] = len(out.cols)
		out.cols = append(out.cols, &Column{Name: c.Name, Values: slices.Clone(c.Values)})
	}
	out.rows = t.rows
	out.index = t.index
	return out
}

// Concat stacks tables vertically. The result has the union of all
// columns in first-seen order; cells from a part lacking a column are nil.
// The result has no index.
func Concat(name string, parts ...*Table) *Table {
	out := New(name)
	for _, p := range parts {
		for _, c := range p.cols {
			if !out.Has(c.Name) {
				out.pos[c.Name] = len(out.cols)
				out.cols = append(out.cols, &Column{Name: c.Name})
			}
		}
	}
	for _, p := range parts {
		for _, c := range out.cols {
			if pc, ok := p.Column(c.Name); ok {
				c.Values = append(c.Values, pc.Values...)
			} else {
				c.Values = append(c.Values, make([]any, p.rows)...)
			}
		}
		out.rows += p.rows
	}
	return out
}
