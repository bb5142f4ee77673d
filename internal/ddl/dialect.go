package ddl

import (
	"fmt"
	"strings"

	"salesetl/internal/table"
)

// Dialect captures what differs between SQL backends when creating and
// loading a table: identifier quoting, the SQL type per column kind, and how
// to make CREATE TABLE idempotent. The zero Dialect emits identifiers verbatim
// and an unguarded CREATE TABLE.
type Dialect struct {
	Name string

	// QuoteIdent quotes a single identifier segment. Nil leaves it as-is.
	QuoteIdent func(string) string

	// Types maps column kinds onto SQL types.
	Types map[table.Kind]string

	// Guard renders the full statement from the quoted FQN and the rendered
	// column clauses. Nil yields a plain CREATE TABLE.
	Guard func(fqn string, cols []string) string
}

// Quote quotes one identifier segment.
func (d Dialect) Quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes each dotted segment of a possibly schema-qualified name.
// Empty segments are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes every name in cols.
func (d Dialect) QuoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return out
}

// FromTable derives a table definition named fqn from the columns of t.
// Every column is nullable: cells may be empty and repeated loads append.
func FromTable(fqn string, t table.Reader, d Dialect) (TableDef, error) {
	names := t.Names()
	if len(names) == 0 {
		return TableDef{}, fmt.Errorf("ddl: table %s has no columns", fqn)
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(names))}
	for _, n := range names {
		col, err := t.Column(n)
		if err != nil {
			return TableDef{}, err
		}
		typ, ok := d.Types[col.Kind()]
		if !ok {
			return TableDef{}, fmt.Errorf("ddl: %s has no SQL type for %s column %q", d.Name, col.Kind(), n)
		}
		def.Columns = append(def.Columns, ColumnDef{Name: n, SQLType: typ, Nullable: true})
	}
	return def, nil
}

func doubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func bracketQuote(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }

// SQLite stores dates as ISO-8601 TEXT; it has no native date type.
var SQLite = Dialect{
	Name:       "sqlite",
	QuoteIdent: doubleQuote,
	Types: map[table.Kind]string{
		table.KindString: "TEXT",
		table.KindInt:    "INTEGER",
		table.KindFloat:  "REAL",
		table.KindDate:   "TEXT",
	},
	Guard: func(fqn string, cols []string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, strings.Join(cols, ",\n  "))
	},
}

// Postgres dialect.
var Postgres = Dialect{
	Name:       "postgres",
	QuoteIdent: doubleQuote,
	Types: map[table.Kind]string{
		table.KindString: "TEXT",
		table.KindInt:    "BIGINT",
		table.KindFloat:  "DOUBLE PRECISION",
		table.KindDate:   "DATE",
	},
	Guard: func(fqn string, cols []string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, strings.Join(cols, ",\n  "))
	},
}

// MSSQL has no CREATE TABLE IF NOT EXISTS; the statement checks OBJECT_ID.
var MSSQL = Dialect{
	Name:       "mssql",
	QuoteIdent: bracketQuote,
	Types: map[table.Kind]string{
		table.KindString: "NVARCHAR(MAX)",
		table.KindInt:    "BIGINT",
		table.KindFloat:  "FLOAT",
		table.KindDate:   "DATE",
	},
	Guard: func(fqn string, cols []string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(fqn, "'", "''"), fqn, strings.Join(cols, ",\n    "),
		)
	},
}
