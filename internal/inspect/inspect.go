// Package inspect renders human-readable diagnostics for a table: its shape,
// its inferred schema, the first rows and summary statistics of the numeric
// columns. The output is for operators and carries no compatibility promise.
package inspect

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"salesetl/internal/table"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the non-null values of one numeric column.
type Summary struct {
	Column string
	Count  int
	Nulls  int
	Mean   float64
	Std    float64 // sample standard deviation; NaN when Count < 2
	Min    float64
	Median float64
	Max    float64
}

// Describe summarizes every numeric column of t in column order. Columns
// without any non-null value report Count 0 and NaN statistics.
func Describe(t table.Reader) ([]Summary, error) {
	var out []Summary
	for _, name := range t.Names() {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if !c.Kind().IsNumeric() {
			continue
		}
		vals := make([]float64, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				vals = append(vals, v)
			}
		}
		out = append(out, summarize(name, vals, c.Len()-len(vals)))
	}
	return out, nil
}

func summarize(name string, vals []float64, nulls int) Summary {
	s := Summary{Column: name, Count: len(vals), Nulls: nulls}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Median, s.Max = nan, nan, nan, nan, nan
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Print writes the shape, the schema, the first n rows and the numeric
// summaries of t to w.
func Print(w io.Writer, title string, t table.Reader, n int) error {
	rows, cols := t.NumRows(), len(t.Names())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "== %s: %d rows x %d columns\n", title, rows, cols)

	fmt.Fprintln(tw, "\ncolumn\tkind\tnulls")
	for _, name := range t.Names() {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, c.Kind(), c.NullCount())
	}

	if n > rows {
		n = rows
	}
	if n > 0 {
		fmt.Fprintf(tw, "\nhead(%d)\n", n)
		fmt.Fprintln(tw, strings.Join(t.Names(), "\t"))
		for i := 0; i < n; i++ {
			cells := make([]string, 0, cols)
			for _, name := range t.Names() {
				c, _ := t.Column(name)
				cells = append(cells, c.Format(i))
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
	}

	sums, err := Describe(t)
	if err != nil {
		return err
	}
	if len(sums) > 0 {
		fmt.Fprintln(tw, "\ncolumn\tcount\tmean\tstd\tmin\tmedian\tmax")
		for _, s := range sums {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n", s.Column, s.Count,
				num(s.Mean), num(s.Std), num(s.Min), num(s.Median), num(s.Max))
		}
	}
	return tw.Flush()
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "-"
	}
	return table.FormatFloat(f)
}
