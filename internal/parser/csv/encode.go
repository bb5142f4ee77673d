package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"salesetl/internal/table"
)

// Encode writes t as CSV: one header row of column names followed by one row
// per table row. Cells are rendered with Column.Format, so ints are base 10,
// integral floats keep a ".0" suffix, dates use the layout they were parsed
// with, and nulls are empty fields.
func Encode(w io.Writer, t table.Reader) error {
	return EncodeWith(w, t, ',')
}

// EncodeWith is Encode with a custom delimiter.
func EncodeWith(w io.Writer, t table.Reader, comma rune) error {
	names := t.Names()
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return err
		}
		cols[i] = c
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			rec[j] = c.Format(i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
