// Package csv decodes delimited text into a typed table.Table and encodes
// tables back to CSV. Column kinds are inferred from the cell text; empty
// cells become nulls.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"salesetl/internal/config"
	"salesetl/internal/table"
)

// Options configures the CSV codec. The zero value is not useful; start from
// DefaultOptions or OptionsFrom.
type Options struct {
	// HasHeader indicates whether the first row contains column headers. When
	// false, columns are named col_0, col_1, ...
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing white space from each field value.
	TrimSpace bool

	// LazyQuotes relaxes quote handling (see encoding/csv.Reader.LazyQuotes).
	LazyQuotes bool
}

// DefaultOptions matches the published sales extract: header row, comma
// separated, cells kept verbatim.
func DefaultOptions() Options {
	return Options{HasHeader: true, Comma: ','}
}

// OptionsFrom reads parser options from a pipeline options bag.
//
//   - has_header (bool; default true)
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default false)
//   - lazy_quotes (bool; default false)
func OptionsFrom(opt config.Options) Options {
	return Options{
		HasHeader:  opt.Bool("has_header", true),
		Comma:      opt.Rune("comma", ','),
		TrimSpace:  opt.Bool("trim_space", false),
		LazyQuotes: opt.Bool("lazy_quotes", false),
	}
}

// DecodeError reports malformed input: a syntax error, a row whose width
// differs from the header, or an unusable header.
type DecodeError struct {
	Line   int // 1-based line in the input
	Column int // 1-based field, 0 when not applicable
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("csv: line %d, field %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrNoHeader is wrapped by DecodeError when the input has no rows at all.
var ErrNoHeader = errors.New("missing header row")

// checkEvery controls how often Decode polls ctx.
const checkEvery = 4096

// Decode reads all of r into a table. Every row must have as many fields as
// the header; the first violation aborts with a *DecodeError. Cancelling ctx
// aborts with ctx.Err().
func Decode(ctx context.Context, r io.Reader, opt Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.ReuseRecord = true
	cr.FieldsPerRecord = 0 // all rows as wide as the first

	first, err := cr.Read()
	if err == io.EOF {
		return nil, &DecodeError{Line: 1, Err: ErrNoHeader}
	}
	if err != nil {
		return nil, asDecodeError(err, 1)
	}

	var headers []string
	cells := make([][]string, len(first))
	if opt.HasHeader {
		headers = append([]string(nil), first...)
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	} else {
		headers = make([]string, len(first))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
		appendRow(cells, first, opt.TrimSpace)
	}
	if err := checkHeaders(headers); err != nil {
		return nil, &DecodeError{Line: 1, Err: err}
	}

	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asDecodeError(err, n+2)
		}
		appendRow(cells, rec, opt.TrimSpace)
	}

	cols := make([]*table.Column, len(headers))
	for i, name := range headers {
		cols[i] = buildColumn(name, cells[i])
	}
	return table.New(cols...)
}

func appendRow(cells [][]string, rec []string, trim bool) {
	for i, v := range rec {
		if trim {
			v = strings.TrimSpace(v)
		}
		cells[i] = append(cells[i], v)
	}
}

// checkHeaders rejects raw header rows that cannot name a table.
func checkHeaders(h []string) error {
	seen := make(map[string]struct{}, len(h))
	for _, name := range h {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate header %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func asDecodeError(err error, line int) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &DecodeError{Line: pe.Line, Column: pe.Column, Err: pe.Err}
	}
	return &DecodeError{Line: line, Err: err}
}
