// Package schema canonicalizes column names and checks a table's columns
// against a named Contract.
package schema

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"salesetl/internal/table"
)

// Canonical maps a raw header to its canonical form: NFC-composed, every
// whitespace rune removed, lowercased. "Item Type" and "item\ttype" both
// become "itemtype". Canonical is idempotent.
func Canonical(raw string) string {
	// Chains are stateful; build one per call so Canonical is safe for
	// concurrent use.
	t := transform.Chain(
		norm.NFC,
		runes.Remove(runes.Predicate(unicode.IsSpace)),
		cases.Lower(language.Und),
	)
	out, _, err := transform.String(t, raw)
	if err != nil {
		// Only reachable on invalid UTF-8 the transformers refuse; fall back
		// to a byte-level pass that still satisfies the contract.
		return strings.ToLower(strings.Join(strings.FieldsFunc(raw, unicode.IsSpace), ""))
	}
	return out
}

// SchemaError reports that two or more raw headers collapse to the same
// canonical name.
type SchemaError struct {
	// Collisions maps each ambiguous canonical name to the raw headers that
	// produced it, in column order.
	Collisions map[string][]string
	order      []string
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, name := range e.order {
		parts = append(parts, fmt.Sprintf("%q <- %q", name, e.Collisions[name]))
	}
	return "schema: duplicate canonical column names: " + strings.Join(parts, ", ")
}

// Normalize takes ownership of t and rewrites every column name to its
// canonical form in place. Row data is not touched. On a collision t is left
// unchanged and a *SchemaError is returned.
func Normalize(t *table.Table) (*table.Table, error) {
	raw := t.Names()
	names := make([]string, len(raw))
	byCanon := make(map[string][]string, len(raw))
	var dupes []string
	for i, r := range raw {
		c := Canonical(r)
		names[i] = c
		byCanon[c] = append(byCanon[c], r)
		if len(byCanon[c]) == 2 {
			dupes = append(dupes, c)
		}
	}
	if len(dupes) > 0 {
		err := &SchemaError{Collisions: make(map[string][]string, len(dupes)), order: dupes}
		for _, d := range dupes {
			err.Collisions[d] = byCanon[d]
		}
		return nil, err
	}
	if err := t.Rename(names); err != nil {
		return nil, err
	}
	return t, nil
}
