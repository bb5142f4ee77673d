// Package storage defines the database sink contract and a kind-keyed factory
// that backend packages register into from init.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is a database sink for a loaded table.
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned with columns) into the configured
	// table and returns the number of rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string // "sqlite", "postgres", "mssql"
	DSN   string
	Table string // optionally schema-qualified
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
