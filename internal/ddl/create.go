// Package ddl defines a small model for SQL table definitions, derives one from
// a table's column kinds, and renders CREATE TABLE statements per dialect.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a dialect-neutral CREATE TABLE statement:
// identifiers are emitted as-is and no existence guard is added.
//
// A column is rendered as
//
//	<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
// and primary-key columns are collected into a trailing PRIMARY KEY clause.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Dialect{}.CreateTableSQL(t)
}

// CreateTableSQL renders t for dialect d.
func (d Dialect) CreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		// Primary keys are always NOT NULL.
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	qfqn := d.QuoteFQN(fqn)
	if d.Guard != nil {
		return d.Guard(qfqn, cols), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", qfqn, strings.Join(cols, ",\n  ")), nil
}
