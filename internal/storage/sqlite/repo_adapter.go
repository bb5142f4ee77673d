package sqlite

import (
	"context"
	"fmt"

	"salesetl/internal/ddl"
	"salesetl/internal/storage"
	"salesetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds Close to *Repository using the cleanup function returned
// by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("sqlite", ensureTable)
}

func ensureTable(ctx context.Context, repo storage.Repository, fqn string, t table.Reader) error {
	def, err := ddl.FromTable(fqn, t, ddl.SQLite)
	if err != nil {
		return fmt.Errorf("infer table definition: %w", err)
	}
	stmt, err := ddl.SQLite.CreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}
