package transformer

import (
	"salesetl/internal/table"
)

// Select returns the rows of t satisfying p, restricted to columns in the
// requested order. Input row order is preserved. Null cells never satisfy a
// predicate.
func Select(t table.Reader, p Predicate, columns []string) (*table.Table, error) {
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, err
	}
	if !col.Kind().IsNumeric() {
		return nil, &table.TypeMismatchError{Column: p.Column, Got: col.Kind(), Want: "numeric"}
	}
	// Resolve the projection before scanning so a bad name fails fast.
	for _, name := range columns {
		if _, err := t.Column(name); err != nil {
			return nil, err
		}
	}

	rows := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if v, ok := col.Float(i); ok && p.eval(v) {
			rows = append(rows, i)
		}
	}
	return table.Take(t, rows, columns)
}
