// Package transformer holds the read-only table operations of the pipeline:
// row filtering with projection, grouped sums, and ordering. Every operation
// returns a new table and leaves its input untouched.
package transformer

import "salesetl/internal/table"

type Transformer interface {
	Apply(table.Reader) (*table.Table, error)
}

// Chain is an ordered list of transformers. The output of each step is the
// input of the next; the first error stops the chain.
type Chain []Transformer

func (c Chain) Apply(in table.Reader) (*table.Table, error) {
	var out *table.Table
	for _, t := range c {
		next, err := t.Apply(in)
		if err != nil {
			return nil, err
		}
		out, in = next, next
	}
	if out == nil {
		// Empty chain: hand back a private copy rather than the input.
		return table.Take(in, allRows(in.NumRows()), in.Names())
	}
	return out, nil
}

// Filter keeps rows matching Predicate and projects Columns.
type Filter struct {
	Predicate Predicate
	Columns   []string
}

func (f Filter) Apply(in table.Reader) (*table.Table, error) {
	return Select(in, f.Predicate, f.Columns)
}

// GroupSum sums Value per distinct combination of Keys.
type GroupSum struct {
	Keys  []string
	Value string
}

func (g GroupSum) Apply(in table.Reader) (*table.Table, error) {
	return GroupSumBy(in, g.Keys, g.Value)
}

// Sort orders rows lexically by Keys.
type Sort struct {
	Keys []string
}

func (s Sort) Apply(in table.Reader) (*table.Table, error) {
	t, err := table.Take(in, allRows(in.NumRows()), in.Names())
	if err != nil {
		return nil, err
	}
	return t.SortBy(s.Keys...)
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
