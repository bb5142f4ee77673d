// Package mssql implements a Microsoft SQL Server storage.Repository using
// the go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"salesetl/internal/ddl"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN   string
	Table string // optionally schema-qualified, e.g. "dbo.grouped_sales"
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository validates the DSN, connects and pings. It returns a Close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom bulk-inserts rows into the configured table within a transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(ddl.MSSQL.QuoteFQN(r.cfg.Table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec runs a single statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql exec: %w", err)
	}
	return nil
}
