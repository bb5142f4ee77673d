// Package postgres implements a Postgres storage.Repository using pgx v5.
// Batches are written with the COPY protocol straight into the target table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // optionally schema-qualified, e.g. "public.grouped_sales"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository parses the DSN, opens a pool and pings it. It returns a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom copies rows into the configured table with COPY FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres copy into %s: %s (%s): %w", r.cfg.Table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("postgres copy into %s: %w", r.cfg.Table, err)
	}
	return n, nil
}

// Exec runs a single statement against the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres exec: %w", err)
	}
	return nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}
