package storage

import (
	"context"
	"fmt"
	"sync"

	"salesetl/internal/table"
)

// DDLBootstrapper creates the destination table named fqn, shaped after t,
// when it does not exist yet. Backends register one per kind.
type DDLBootstrapper func(ctx context.Context, repo Repository, fqn string, t table.Reader) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, fqn string, t table.Reader) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, fqn, t)
}
