package transformer

import (
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"salesetl/internal/table"
)

// ErrNoKeys is returned by GroupSumBy when called without key columns.
var ErrNoKeys = errors.New("transformer: group by needs at least one key column")

// GroupSumBy partitions the rows of t by the values of keys and sums value
// within each partition. The result has the key columns (same kinds) followed
// by value. Groups appear in order of first occurrence.
//
// Key equality is exact: floats compare by bit pattern and null keys form
// their own group. Null value cells contribute nothing. Int sums are exact and
// fail on overflow; float sums accumulate in row order.
func GroupSumBy(t table.Reader, keys []string, value string) (*table.Table, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	keyCols := make([]*table.Column, len(keys))
	for i, k := range keys {
		c, err := t.Column(k)
		if err != nil {
			return nil, err
		}
		keyCols[i] = c
	}
	val, err := t.Column(value)
	if err != nil {
		return nil, err
	}
	if !val.Kind().IsNumeric() {
		return nil, &table.TypeMismatchError{Column: value, Got: val.Kind(), Want: "numeric"}
	}

	var (
		buckets = make(map[uint64][]int) // key hash -> group ids
		first   []int                    // group id -> first row
		ints    []int64
		floats  []float64
		buf     []byte
	)
	for i := 0; i < t.NumRows(); i++ {
		buf = buf[:0]
		for _, c := range keyCols {
			buf = c.AppendKey(buf, i)
		}
		h := xxh3.Hash(buf)

		gid := -1
		for _, g := range buckets[h] {
			if sameKey(keyCols, first[g], i) {
				gid = g
				break
			}
		}
		if gid < 0 {
			gid = len(first)
			first = append(first, i)
			ints = append(ints, 0)
			floats = append(floats, 0)
			buckets[h] = append(buckets[h], gid)
		}

		if val.IsNull(i) {
			continue
		}
		switch val.Kind() {
		case table.KindInt:
			s, ok := addInt64(ints[gid], val.Int(i))
			if !ok {
				return nil, fmt.Errorf("transformer: int64 overflow summing %q", value)
			}
			ints[gid] = s
		default:
			floats[gid] += val.FloatAt(i)
		}
	}

	out, err := table.Take(t, first, keys)
	if err != nil {
		return nil, err
	}
	b := table.NewBuilder(value, val.Kind(), len(first))
	for g := range first {
		if val.Kind() == table.KindInt {
			b.AppendInt(ints[g])
		} else {
			b.AppendFloat(floats[g])
		}
	}
	return table.New(append(out.Columns(), b.Finish())...)
}

func sameKey(cols []*table.Column, a, b int) bool {
	for _, c := range cols {
		if !table.CellEqual(c, a, c, b) {
			return false
		}
	}
	return true
}

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}
