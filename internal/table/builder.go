package table

import (
	"fmt"
	"time"
)

// Builder accumulates cells for a single column. Appending a value of a
// different kind than the builder's is a programming error and panics.
type Builder struct {
	col     *Column
	nulls   []bool
	hasNull bool
}

// NewBuilder returns a Builder for a column of the given kind with room for
// capacity cells.
func NewBuilder(name string, kind Kind, capacity int) *Builder {
	c := &Column{name: name, kind: kind}
	switch kind {
	case KindInt:
		c.ints = make([]int64, 0, capacity)
	case KindFloat:
		c.floats = make([]float64, 0, capacity)
	case KindDate:
		c.dates = make([]time.Time, 0, capacity)
	default:
		c.strs = make([]string, 0, capacity)
	}
	return &Builder{col: c, nulls: make([]bool, 0, capacity)}
}

// SetLayout records the date layout for a KindDate column.
func (b *Builder) SetLayout(layout string) { b.col.layout = layout }

// Kind returns the kind of the column under construction.
func (b *Builder) Kind() Kind { return b.col.kind }

// Len returns the number of cells appended so far.
func (b *Builder) Len() int { return len(b.nulls) }

func (b *Builder) must(k Kind) {
	if b.col.kind != k {
		panic(fmt.Sprintf("table: append %s to %s column %q", k, b.col.kind, b.col.name))
	}
}

func (b *Builder) AppendString(v string) {
	b.must(KindString)
	b.col.strs = append(b.col.strs, v)
	b.nulls = append(b.nulls, false)
}

func (b *Builder) AppendInt(v int64) {
	b.must(KindInt)
	b.col.ints = append(b.col.ints, v)
	b.nulls = append(b.nulls, false)
}

func (b *Builder) AppendFloat(v float64) {
	b.must(KindFloat)
	b.col.floats = append(b.col.floats, v)
	b.nulls = append(b.nulls, false)
}

func (b *Builder) AppendDate(v time.Time) {
	b.must(KindDate)
	b.col.dates = append(b.col.dates, v)
	b.nulls = append(b.nulls, false)
}

// AppendNull appends a missing cell.
func (b *Builder) AppendNull() {
	switch b.col.kind {
	case KindInt:
		b.col.ints = append(b.col.ints, 0)
	case KindFloat:
		b.col.floats = append(b.col.floats, 0)
	case KindDate:
		b.col.dates = append(b.col.dates, time.Time{})
	default:
		b.col.strs = append(b.col.strs, "")
	}
	b.nulls = append(b.nulls, true)
	b.hasNull = true
}

// AppendFrom copies cell i of src, which must have the builder's kind.
func (b *Builder) AppendFrom(src *Column, i int) {
	if src.IsNull(i) {
		b.AppendNull()
		return
	}
	switch src.kind {
	case KindInt:
		b.AppendInt(src.ints[i])
	case KindFloat:
		b.AppendFloat(src.floats[i])
	case KindDate:
		b.AppendDate(src.dates[i])
	default:
		b.AppendString(src.strs[i])
	}
}

// Finish returns the built column. The builder must not be used afterwards.
func (b *Builder) Finish() *Column {
	c := b.col
	if b.hasNull {
		c.nulls = b.nulls
	}
	b.col = nil
	return c
}
