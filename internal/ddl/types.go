package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, DATE)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'n/a', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN) and an ordered list of columns. The FQN
// may be dotted ("schema.table"); dialects quote each segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
