package schema

import (
	"errors"
	"reflect"
	"testing"

	"salesetl/internal/table"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Region", "region"},
		{"Item Type", "itemtype"},
		{"  Sales   Channel ", "saleschannel"},
		{"Order\tDate", "orderdate"},
		{"Total\u00a0Profit", "totalprofit"},
		{"Units\nSold", "unitssold"},
		{"totalprofit", "totalprofit"},
		{"", ""},
		{"Cafe\u0301", "caf\u00e9"}, // composed under NFC
	}
	for _, tc := range tests {
		if got := Canonical(tc.in); got != tc.want {
			t.Errorf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Item Type", "ÄB c", "Order Priority", "X\r\nY", "ǅungla"} {
		once := Canonical(in)
		if twice := Canonical(once); twice != once {
			t.Errorf("Canonical not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func rawSalesHeaders() []string {
	return []string{
		"Region", "Country", "Item Type", "Sales Channel", "Order Priority",
		"Order Date", "Order ID", "Ship Date", "Units Sold", "Unit Price",
		"Unit Cost", "Total Revenue", "Total Cost", "Total Profit",
	}
}

func tableWithNames(t *testing.T, names ...string) *table.Table {
	t.Helper()
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i] = table.NewStringColumn(n, "v")
	}
	tbl, err := table.New(cols...)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func TestNormalize_SalesHeaders(t *testing.T) {
	t.Parallel()

	tbl := tableWithNames(t, rawSalesHeaders()...)
	out, err := Normalize(tbl)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out != tbl {
		t.Fatalf("Normalize should return the same table")
	}
	if !Matches(out.Names(), Sales) {
		t.Fatalf("normalized names %v do not match contract", out.Names())
	}
	if err := Check(out.Names(), Sales); err != nil {
		t.Fatalf("Check: %v", err)
	}

	// A second pass is a no-op.
	again, err := Normalize(out)
	if err != nil || !reflect.DeepEqual(again.Names(), Sales.Names()) {
		t.Fatalf("second Normalize = %v, %v", again.Names(), err)
	}
}

func TestNormalize_Collision(t *testing.T) {
	t.Parallel()

	tbl := tableWithNames(t, "Total Profit", "Region", "TotalProfit")
	_, err := Normalize(tbl)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if got, want := se.Collisions["totalprofit"], []string{"Total Profit", "TotalProfit"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Collisions = %v, want %v", got, want)
	}
	if tbl.Names()[0] != "Total Profit" {
		t.Fatalf("failed Normalize renamed columns: %v", tbl.Names())
	}
}

func TestCheck_Mismatch(t *testing.T) {
	t.Parallel()

	full := Sales.Names()

	tests := []struct {
		name       string
		names      []string
		missing    []string
		unexpected []string
		position   int
	}{
		{
			name:     "missing_orderid",
			names:    append(append([]string{}, full[:6]...), full[7:]...),
			missing:  []string{"orderid"},
			position: 6,
		},
		{
			name:       "extra_column",
			names:      append(append([]string{}, full...), "discount"),
			unexpected: []string{"discount"},
			position:   -1,
		},
		{
			name:     "swapped",
			names:    append([]string{full[1], full[0]}, full[2:]...),
			position: 0,
		},
		{
			name:     "empty",
			names:    nil,
			missing:  full,
			position: -1,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if Matches(tc.names, Sales) {
				t.Fatalf("Matches = true")
			}
			var me *MismatchError
			if err := Check(tc.names, Sales); !errors.As(err, &me) {
				t.Fatalf("expected MismatchError, got %v", err)
			}
			if !reflect.DeepEqual(me.Missing, tc.missing) {
				t.Errorf("Missing = %v, want %v", me.Missing, tc.missing)
			}
			if !reflect.DeepEqual(me.Unexpected, tc.unexpected) {
				t.Errorf("Unexpected = %v, want %v", me.Unexpected, tc.unexpected)
			}
			if me.Position != tc.position {
				t.Errorf("Position = %d, want %d", me.Position, tc.position)
			}
			if me.Error() == "" {
				t.Errorf("empty error message")
			}
		})
	}
}

func TestTypeWarnings(t *testing.T) {
	t.Parallel()

	c := Contract{Name: "t", Fields: []Field{
		{Name: "a", Type: "int"},
		{Name: "b", Type: "float"},
		{Name: "c", Type: "date"},
		{Name: "d", Type: "int"},
	}}
	nb := table.NewBuilder("d", table.KindString, 1)
	nb.AppendNull()
	tbl := table.MustNew(
		table.NewStringColumn("a", "x"),
		table.NewIntColumn("b", 1),
		table.NewStringColumn("c", "soon"),
		nb.Finish(),
	)

	got := TypeWarnings(tbl, c)
	var cols []string
	for _, w := range got {
		cols = append(cols, w.Column)
	}
	if want := []string{"a", "c"}; !reflect.DeepEqual(cols, want) {
		t.Fatalf("warned columns = %v, want %v", cols, want)
	}
}
