package table

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Column is a named, homogeneous sequence of values. Exactly one of the typed
// slices is populated, selected by Kind. Null cells hold the zero value in the
// typed slice and are flagged in nulls (nil when the column has no nulls).
type Column struct {
	name   string
	kind   Kind
	layout string

	strs   []string
	ints   []int64
	floats []float64
	dates  []time.Time

	nulls []bool
}

// NewStringColumn returns a string column holding vals.
func NewStringColumn(name string, vals ...string) *Column {
	return &Column{name: name, kind: KindString, strs: append([]string(nil), vals...)}
}

// NewIntColumn returns an int column holding vals.
func NewIntColumn(name string, vals ...int64) *Column {
	return &Column{name: name, kind: KindInt, ints: append([]int64(nil), vals...)}
}

// NewFloatColumn returns a float column holding vals.
func NewFloatColumn(name string, vals ...float64) *Column {
	return &Column{name: name, kind: KindFloat, floats: append([]float64(nil), vals...)}
}

// NewDateColumn returns a date column holding vals. layout is the Go time
// layout used to render the values back to text.
func NewDateColumn(name, layout string, vals ...time.Time) *Column {
	return &Column{name: name, kind: KindDate, layout: layout, dates: append([]time.Time(nil), vals...)}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

// Layout is the date layout of a KindDate column; empty for other kinds.
func (c *Column) Layout() string { return c.layout }

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	switch c.kind {
	case KindInt:
		return len(c.ints)
	case KindFloat:
		return len(c.floats)
	case KindDate:
		return len(c.dates)
	default:
		return len(c.strs)
	}
}

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool {
	return c.nulls != nil && c.nulls[i]
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.nulls {
		if null {
			n++
		}
	}
	return n
}

func (c *Column) Str(i int) string      { return c.strs[i] }
func (c *Column) Int(i int) int64       { return c.ints[i] }
func (c *Column) Date(i int) time.Time  { return c.dates[i] }
func (c *Column) FloatAt(i int) float64 { return c.floats[i] }
func (c *Column) Strings() []string     { return c.strs }
func (c *Column) Ints() []int64         { return c.ints }
func (c *Column) Floats() []float64     { return c.floats }
func (c *Column) Dates() []time.Time    { return c.dates }

// Float returns cell i as a float64 for numeric columns. ok is false for
// nulls and non-numeric kinds.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.IsNull(i) {
		return 0, false
	}
	switch c.kind {
	case KindInt:
		return float64(c.ints[i]), true
	case KindFloat:
		return c.floats[i], true
	default:
		return 0, false
	}
}

// Value returns cell i as a Go value (string, int64, float64, time.Time), or
// nil when the cell is null.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.kind {
	case KindInt:
		return c.ints[i]
	case KindFloat:
		return c.floats[i]
	case KindDate:
		return c.dates[i]
	default:
		return c.strs[i]
	}
}

// Format renders cell i as text. Nulls render as "". Floats use the shortest
// decimal that round-trips and keep a ".0" suffix when integral so that the
// text is re-read as a float.
func (c *Column) Format(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.kind {
	case KindInt:
		return strconv.FormatInt(c.ints[i], 10)
	case KindFloat:
		return FormatFloat(c.floats[i])
	case KindDate:
		layout := c.layout
		if layout == "" {
			layout = time.DateOnly
		}
		return c.dates[i].Format(layout)
	default:
		return c.strs[i]
	}
}

// FormatFloat renders f in plain decimal notation, appending ".0" to integral
// values.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}

// AppendKey appends a binary encoding of cell i to buf. Two cells of the same
// kind produce equal encodings iff CellEqual reports them equal.
func (c *Column) AppendKey(buf []byte, i int) []byte {
	if c.IsNull(i) {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	switch c.kind {
	case KindInt:
		return binary.LittleEndian.AppendUint64(buf, uint64(c.ints[i]))
	case KindFloat:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.floats[i]))
	case KindDate:
		return binary.LittleEndian.AppendUint64(buf, uint64(c.dates[i].UnixNano()))
	default:
		buf = binary.AppendUvarint(buf, uint64(len(c.strs[i])))
		return append(buf, c.strs[i]...)
	}
}

// CellEqual reports whether a[i] and b[j] hold the same value. Floats compare
// by bit pattern, so NaN equals NaN and 0.0 differs from -0.0. Nulls equal
// nulls.
func CellEqual(a *Column, i int, b *Column, j int) bool {
	an, bn := a.IsNull(i), b.IsNull(j)
	if an || bn {
		return an && bn
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt:
		return a.ints[i] == b.ints[j]
	case KindFloat:
		return math.Float64bits(a.floats[i]) == math.Float64bits(b.floats[j])
	case KindDate:
		return a.dates[i].Equal(b.dates[j])
	default:
		return a.strs[i] == b.strs[j]
	}
}

// compareCells orders a[i] against b[j] of the same kind. Nulls sort first.
func compareCells(a *Column, i int, b *Column, j int) int {
	an, bn := a.IsNull(i), b.IsNull(j)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	switch a.kind {
	case KindInt:
		return cmp.Compare(a.ints[i], b.ints[j])
	case KindFloat:
		return cmp.Compare(a.floats[i], b.floats[j])
	case KindDate:
		return a.dates[i].Compare(b.dates[j])
	default:
		return cmp.Compare(a.strs[i], b.strs[j])
	}
}

// take gathers the given row indices into a new column with fresh storage.
func (c *Column) take(rows []int) *Column {
	b := NewBuilder(c.name, c.kind, len(rows))
	b.SetLayout(c.layout)
	for _, r := range rows {
		b.AppendFrom(c, r)
	}
	return b.Finish()
}

func (c *Column) String() string {
	return fmt.Sprintf("%s(%s, len=%d)", c.name, c.kind, c.Len())
}
