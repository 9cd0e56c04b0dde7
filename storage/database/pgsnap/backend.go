// Package pgsnap keeps the store snapshot in the snapshot_entries table, one JSONB row per storage key.
package pgsnap

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const (
	selectEntries = `SELECT key, value FROM snapshot_entries`
	upsertEntry   = `INSERT INTO snapshot_entries (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, version = snapshot_entries.version + 1, updated_at = now()`
)

type entry struct {
	Key   string    `db:"key"`
	Value null.JSON `db:"value"`
}

type Backend struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Load(ctx context.Context) (map[string][]byte, error) {
	var rows []entry
	if err := b.db.SelectContext(ctx, &rows, selectEntries); err != nil {
		return nil, errors.Wrap(err, "selecting snapshot entries")
	}
	entries := make(map[string][]byte, len(rows))
	for _, row := range rows {
		if row.Value.Valid {
			entries[row.Key] = row.Value.JSON
		}
	}
	return entries, nil
}

// Save upserts entries in a single transaction, in key order.
func (b *Backend) Save(ctx context.Context, entries map[string][]byte) (err error) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, key := range keys {
		if _, err = tx.ExecContext(ctx, upsertEntry, key, null.JSONFrom(entries[key])); err != nil {
			return errors.Wrapf(err, "saving %s", key)
		}
	}
	return errors.Wrap(tx.Commit(), "committing snapshot")
}
