package schema

import (
	"fmt"
	"strings"

	"salesetl/internal/table"
)

type Field struct {
	Name   string `json:"name"`
	Type   string `json:"type"`             // "string" | "int" | "float" | "date"
	Layout string `json:"layout,omitempty"` // date layout
}

type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Names returns the field names in contract order.
func (c Contract) Names() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// Sales is the expected layout of the sales extract after normalization.
var Sales = Contract{
	Name: "sales",
	Fields: []Field{
		{Name: "region", Type: "string"},
		{Name: "country", Type: "string"},
		{Name: "itemtype", Type: "string"},
		{Name: "saleschannel", Type: "string"},
		{Name: "orderpriority", Type: "string"},
		{Name: "orderdate", Type: "date", Layout: "1/2/2006"},
		{Name: "orderid", Type: "int"},
		{Name: "shipdate", Type: "date", Layout: "1/2/2006"},
		{Name: "unitssold", Type: "int"},
		{Name: "unitprice", Type: "float"},
		{Name: "unitcost", Type: "float"},
		{Name: "totalrevenue", Type: "float"},
		{Name: "totalcost", Type: "float"},
		{Name: "totalprofit", Type: "float"},
	},
}

// Matches reports whether names equals the contract's field sequence exactly
// (same length, same names, same order).
func Matches(names []string, c Contract) bool {
	if len(names) != len(c.Fields) {
		return false
	}
	for i, f := range c.Fields {
		if names[i] != f.Name {
			return false
		}
	}
	return true
}

// MismatchError describes how a column sequence deviates from a contract.
type MismatchError struct {
	Contract   string
	Missing    []string // contract fields absent from the input
	Unexpected []string // input columns not in the contract
	// Position is the first index where input and contract disagree, or -1
	// when only the set of names differs in length.
	Position int
	Got      []string
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema: columns do not match contract %q", e.Contract)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %v", e.Missing)
	}
	if len(e.Unexpected) > 0 {
		fmt.Fprintf(&b, "; unexpected %v", e.Unexpected)
	}
	if len(e.Missing) == 0 && len(e.Unexpected) == 0 && e.Position >= 0 {
		fmt.Fprintf(&b, "; out of order at position %d (got %q)", e.Position, e.Got[e.Position])
	}
	return b.String()
}

// Check returns nil when names matches c, otherwise a *MismatchError.
func Check(names []string, c Contract) error {
	if Matches(names, c) {
		return nil
	}
	want := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		want[f.Name] = struct{}{}
	}
	got := make(map[string]struct{}, len(names))
	for _, n := range names {
		got[n] = struct{}{}
	}

	e := &MismatchError{Contract: c.Name, Position: -1, Got: append([]string(nil), names...)}
	for _, f := range c.Fields {
		if _, ok := got[f.Name]; !ok {
			e.Missing = append(e.Missing, f.Name)
		}
	}
	for _, n := range names {
		if _, ok := want[n]; !ok {
			e.Unexpected = append(e.Unexpected, n)
		}
	}
	for i := 0; i < len(names) && i < len(c.Fields); i++ {
		if names[i] != c.Fields[i].Name {
			e.Position = i
			break
		}
	}
	return e
}

// TypeWarning notes a column whose inferred kind differs from the contract.
type TypeWarning struct {
	Column string
	Got    table.Kind
	Want   string
}

func (w TypeWarning) String() string {
	return fmt.Sprintf("column %q inferred as %s, contract says %s", w.Column, w.Got, w.Want)
}

// TypeWarnings compares the inferred column kinds of t with the contract
// types. An int column where the contract expects float is accepted, as is
// any column whose cells are all empty. Columns missing from t are ignored;
// Check reports those.
func TypeWarnings(t table.Reader, c Contract) []TypeWarning {
	var out []TypeWarning
	for _, f := range c.Fields {
		col, err := t.Column(f.Name)
		if err != nil {
			continue
		}
		want, ok := table.ParseKind(f.Type)
		if !ok || col.Kind() == want {
			continue
		}
		if want == table.KindFloat && col.Kind() == table.KindInt {
			continue
		}
		if col.Len() > 0 && col.NullCount() == col.Len() {
			continue
		}
		out = append(out, TypeWarning{Column: f.Name, Got: col.Kind(), Want: f.Type})
	}
	return out
}
