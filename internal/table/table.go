// Package table implements the in-memory columnar container the pipeline
// operates on.
//
// A Table is an ordered list of named, equal-length columns. Row and column
// counts are derived from the columns, never stored. Apart from Rename, which
// schema normalization uses to rewrite headers in place, every operation
// returns a new Table backed by freshly allocated storage, so callers can hand
// results around without worrying about aliasing.
package table

import (
	"fmt"
	"slices"
	"sort"
)

// Reader is the read-only capability set shared by filtering, grouping,
// encoding and inspection. *Table implements it.
type Reader interface {
	Names() []string
	NumRows() int
	Column(name string) (*Column, error)
}

// Table is an ordered sequence of named columns of equal length.
type Table struct {
	cols []*Column
}

var _ Reader = (*Table)(nil)

// New assembles a table from columns. All columns must have the same length
// and distinct names.
func New(cols ...*Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("table: column %d is nil", i)
		}
		if _, dup := seen[c.name]; dup {
			return nil, fmt.Errorf("table: duplicate column name %q", c.name)
		}
		seen[c.name] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.name, c.Len(), cols[0].Len())
		}
	}
	return &Table{cols: slices.Clone(cols)}, nil
}

// MustNew is like New but panics on error. It is intended for literals in
// tests and examples.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the column names in order. The slice is a copy.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// NumRows returns the row count (0 for a table without columns).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.NumRows(), t.NumCols() }

// Columns returns the columns in order. The slice is a copy; the columns are
// shared and must be treated as read-only.
func (t *Table) Columns() []*Column { return slices.Clone(t.cols) }

// Column looks a column up by exact name.
func (t *Table) Column(name string) (*Column, error) {
	for _, c := range t.cols {
		if c.name == name {
			return c, nil
		}
	}
	return nil, &ColumnNotFoundError{Name: name}
}

// Rename replaces every column name in place. names must have one entry per
// column and must not contain duplicates; on error the table is unchanged.
// Row data is never touched.
func (t *Table) Rename(names []string) error {
	if len(names) != len(t.cols) {
		return fmt.Errorf("table: rename needs %d names, got %d", len(t.cols), len(names))
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("table: duplicate column name %q", n)
		}
		seen[n] = struct{}{}
	}
	for i, c := range t.cols {
		c.name = names[i]
	}
	return nil
}

// Select projects the named columns, in the requested order, into a new
// table.
func (t *Table) Select(names ...string) (*Table, error) {
	return t.Take(allRows(t.NumRows()), names)
}

// Take gathers the given rows (in the given order) of the named columns into
// a new table. Row indices must be in range.
func (t *Table) Take(rows []int, names []string) (*Table, error) {
	return Take(t, rows, names)
}

// Take is Table.Take for any Reader.
func Take(r Reader, rows []int, names []string) (*Table, error) {
	n := r.NumRows()
	for _, i := range rows {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("table: row index %d out of range [0,%d)", i, n)
		}
	}
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := r.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c.take(rows))
	}
	return New(cols...)
}

// Head returns a new table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	out, _ := t.Take(allRows(n), t.Names())
	return out
}

// SortBy returns a new table whose rows are ordered by the named columns,
// compared left to right. Nulls sort first; ties keep input order.
func (t *Table) SortBy(names ...string) (*Table, error) {
	keys := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, c)
	}
	perm := allRows(t.NumRows())
	sort.SliceStable(perm, func(a, b int) bool {
		for _, c := range keys {
			if d := compareCells(c, perm[a], c, perm[b]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return t.Take(perm, t.Names())
}

// Row returns row i as Go values aligned with Names (nil for nulls).
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Value(i)
	}
	return out
}

// Rows returns every row as Go values. Intended for small tables and batch
// loaders.
func (t *Table) Rows() [][]any {
	out := make([][]any, t.NumRows())
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
