package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"

	"github.com/goserg/clubconnect/gen/model"
	"github.com/goserg/clubconnect/gen/table"
	"github.com/goserg/clubconnect/internal/kvstore"
)

// Store keeps values in the kv table created by the storage migrations.
type Store struct {
	db *sql.DB
}

var _ kvstore.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "kvstore.sqlite.Get"
	var dest model.Kv
	err := table.Kv.
		SELECT(table.Kv.Key, table.Kv.Value).
		WHERE(table.Kv.Key.EQ(sqlite.String(key))).
		QueryContext(ctx, s.db, &dest)
	if errors.Is(err, qrm.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return dest.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "kvstore.sqlite.Set"
	_, err := table.Kv.
		INSERT(table.Kv.AllColumns).
		MODEL(model.Kv{
			Key:       key,
			Value:     value,
			UpdatedAt: time.Now().UTC(),
		}).
		ON_CONFLICT(table.Kv.Key).
		DO_UPDATE(sqlite.SET(
			table.Kv.Value.SET(table.Kv.EXCLUDED.Value),
			table.Kv.UpdatedAt.SET(table.Kv.EXCLUDED.UpdatedAt),
		)).
		ExecContext(ctx, s.db)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "kvstore.sqlite.Delete"
	_, err := table.Kv.
		DELETE().
		WHERE(table.Kv.Key.EQ(sqlite.String(key))).
		ExecContext(ctx, s.db)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
