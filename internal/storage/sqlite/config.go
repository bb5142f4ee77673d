package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:salesetl.db?_pragma=busy_timeout(5000)"
	//   "salesetl.db"
	DSN string

	// Table is the target table name, e.g. "grouped_sales". Dotted names such
	// as "main.grouped_sales" are quoted per segment.
	Table string
}
