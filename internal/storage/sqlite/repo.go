// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. Rows are inserted
// with a prepared statement inside one transaction per batch.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salesetl/internal/ddl"

	_ "modernc.org/sqlite"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens and pings a SQLite database and returns a Repository
// plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into the configured table in a single transaction.
// Dates are stored as ISO-8601 text (YYYY-MM-DD).
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ddl.SQLite.QuoteFQN(r.cfg.Table),
		strings.Join(ddl.SQLite.QuoteAll(columns), ", "),
		placeholders,
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d has %d values, want %d", i, len(row), len(columns))
		}
		for j, v := range row {
			args[j] = toSQLiteVal(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec executes a single statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

func toSQLiteVal(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return v
}
