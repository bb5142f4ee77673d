package csv

import (
	"strconv"
	"strings"
	"time"

	"salesetl/internal/table"
)

// dateLayouts are the accepted date and timestamp formats. When several fit
// every cell of a column, the earlier one wins, so month-first sits ahead of
// day-first for the slash forms.
var dateLayouts = []string{
	time.DateOnly,         // ISO
	"1/2/2006",            // M/D/Y slash, optional zero padding
	"2/1/2006",            // D/M/Y slash
	"2.1.2006",            // D.M.Y dot
	"2006/01/02",          // ISO slashy
	"2 Jan 2006",          // D Mon Y
	"02-Jan-2006",         // DD-Mon-Y
	time.RFC3339Nano,      // timestamps keep their layout on re-encode
	time.DateTime,         // "2006-01-02 15:04:05"
	"1/2/2006 15:04:05",   // M/D/Y with time
	"2006-01-02T15:04:05", // ISO without zone
}

// inferKind picks the narrowest kind every non-empty cell parses as:
// int64, then float64, then a single date layout, else string. A column with
// no non-empty cells is a string column.
func inferKind(vals []string) (table.Kind, string) {
	nonEmpty := 0
	allInt, allFloat := true, true
	for _, v := range vals {
		if v == "" {
			continue
		}
		nonEmpty++
		s := strings.TrimSpace(v)
		if allInt && !isInt(s) {
			allInt = false
		}
		if allFloat && !isFloat(s) {
			allFloat = false
		}
		if !allInt && !allFloat {
			break
		}
	}
	switch {
	case nonEmpty == 0:
		return table.KindString, ""
	case allInt:
		return table.KindInt, ""
	case allFloat:
		return table.KindFloat, ""
	}
	if layout := dateLayoutFor(vals); layout != "" {
		return table.KindDate, layout
	}
	return table.KindString, ""
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat accepts decimal or scientific notation. Spellings without digits
// such as "NaN" or "Inf" stay text.
func isFloat(s string) bool {
	if !strings.ContainsAny(s, "0123456789") || strings.HasPrefix(strings.TrimLeft(s, "+-"), "0x") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// dateLayoutFor returns the first layout that parses every non-empty cell.
func dateLayoutFor(vals []string) string {
	for _, layout := range dateLayouts {
		ok := true
		for _, v := range vals {
			if v == "" {
				continue
			}
			if _, err := time.Parse(layout, strings.TrimSpace(v)); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return layout
		}
	}
	return ""
}

// buildColumn converts raw cells into a typed column using the inferred kind.
func buildColumn(name string, vals []string) *table.Column {
	kind, layout := inferKind(vals)
	b := table.NewBuilder(name, kind, len(vals))
	b.SetLayout(layout)
	for _, v := range vals {
		if v == "" {
			b.AppendNull()
			continue
		}
		s := strings.TrimSpace(v)
		switch kind {
		case table.KindInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			b.AppendInt(n)
		case table.KindFloat:
			f, _ := strconv.ParseFloat(s, 64)
			b.AppendFloat(f)
		case table.KindDate:
			d, _ := time.Parse(layout, s)
			b.AppendDate(d)
		default:
			b.AppendString(v)
		}
	}
	return b.Finish()
}
