package ddl

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"salesetl/internal/table"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty_fqn",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no_columns",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "empty_column_name",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "empty_type",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name:    "nullable",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: true}}},
			wantSQL: "CREATE TABLE t (\n  id INT\n);",
		},
		{
			name: "default_is_trimmed",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "created_at", SQLType: "TIMESTAMP", Default: "  CURRENT_TIMESTAMP "},
			}},
			wantSQL: "CREATE TABLE t (\n  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n);",
		},
		{
			name: "composite_primary_key_forces_not_null",
			def: TableDef{FQN: " sales.grouped ", Columns: []ColumnDef{
				{Name: "region", SQLType: "TEXT", Nullable: true, PrimaryKey: true},
				{Name: "country", SQLType: "TEXT", PrimaryKey: true},
				{Name: "totalprofit", SQLType: "REAL", Nullable: true},
			}},
			wantSQL: "CREATE TABLE sales.grouped (\n  region TEXT NOT NULL,\n  country TEXT NOT NULL,\n  totalprofit REAL,\n  PRIMARY KEY (region, country)\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("err = %v, want substring %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL =\n%s\nwant:\n%s", got, tt.wantSQL)
			}
		})
	}
}

func groupedTable() *table.Table {
	return table.MustNew(
		table.NewStringColumn("region", "Asia"),
		table.NewStringColumn("country", "China"),
		table.NewFloatColumn("totalprofit", 700000),
	)
}

func TestDialectCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    Dialect
		fqn  string
		want string
	}{
		{
			SQLite, "grouped_sales",
			"CREATE TABLE IF NOT EXISTS \"grouped_sales\" (\n  \"region\" TEXT,\n  \"country\" TEXT,\n  \"totalprofit\" REAL\n);",
		},
		{
			Postgres, "public.grouped_sales",
			"CREATE TABLE IF NOT EXISTS \"public\".\"grouped_sales\" (\n  \"region\" TEXT,\n  \"country\" TEXT,\n  \"totalprofit\" DOUBLE PRECISION\n);",
		},
		{
			MSSQL, "dbo.grouped_sales",
			"IF OBJECT_ID(N'[dbo].[grouped_sales]', N'U') IS NULL\nBEGIN\n  CREATE TABLE [dbo].[grouped_sales] (\n    [region] NVARCHAR(MAX),\n    [country] NVARCHAR(MAX),\n    [totalprofit] FLOAT\n  );\nEND;",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.d.Name, func(t *testing.T) {
			t.Parallel()

			def, err := FromTable(tt.fqn, groupedTable(), tt.d)
			if err != nil {
				t.Fatalf("FromTable: %v", err)
			}
			got, err := tt.d.CreateTableSQL(def)
			if err != nil {
				t.Fatalf("CreateTableSQL: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CreateTableSQL =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestFromTable_Kinds(t *testing.T) {
	t.Parallel()

	tbl := table.MustNew(
		table.NewStringColumn("s", "a"),
		table.NewIntColumn("i", 1),
		table.NewFloatColumn("f", 1.5),
		table.NewDateColumn("d", "1/2/2006", time.Date(2014, 10, 18, 0, 0, 0, 0, time.UTC)),
	)
	def, err := FromTable("t", tbl, Postgres)
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	want := []string{"TEXT", "BIGINT", "DOUBLE PRECISION", "DATE"}
	for i, c := range def.Columns {
		if c.SQLType != want[i] || !c.Nullable {
			t.Fatalf("column %d = %+v, want nullable %s", i, c, want[i])
		}
	}

	if _, err := FromTable("t", tbl, Dialect{Name: "none"}); err == nil {
		t.Fatalf("expected error for dialect without types")
	}
	if _, err := FromTable("t", table.MustNew(), SQLite); err == nil {
		t.Fatalf("expected error for table without columns")
	}
}

func TestQuoting(t *testing.T) {
	t.Parallel()

	if got := Postgres.Quote(`we"ird`); got != `"we""ird"` {
		t.Fatalf("Postgres.Quote = %s", got)
	}
	if got := MSSQL.Quote("we]ird"); got != "[we]]ird]" {
		t.Fatalf("MSSQL.Quote = %s", got)
	}
	if got := MSSQL.QuoteFQN("dbo..sales"); got != "[dbo].[sales]" {
		t.Fatalf("MSSQL.QuoteFQN = %s", got)
	}
	if got := strings.Join(SQLite.QuoteAll([]string{"a", "b"}), ","); got != `"a","b"` {
		t.Fatalf("SQLite.QuoteAll = %s", got)
	}
	if got := (Dialect{}).QuoteFQN("main.t"); got != "main.t" {
		t.Fatalf("zero Dialect.QuoteFQN = %s", got)
	}
}

var benchmarkSink string

func BenchmarkCreateTableSQL_Wide(b *testing.B) {
	cols := make([]ColumnDef, 0, 64)
	for i := 0; i < 64; i++ {
		cols = append(cols, ColumnDef{Name: "col_" + strconv.Itoa(i), SQLType: "TEXT", Nullable: true})
	}
	def := TableDef{FQN: "wide", Columns: cols}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := Postgres.CreateTableSQL(def)
		if err != nil {
			b.Fatalf("CreateTableSQL: %v", err)
		}
		benchmarkSink = sql
	}
}
