// Package snapshot persists the cache's settled entries to a local SQLite
// file so the app can render stale data immediately on a cold start.
package snapshot

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/sync"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	entity     TEXT NOT NULL,
	params     TEXT NOT NULL,
	single     INTEGER NOT NULL,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// DB is a snapshot file. Safe for use from one process at a time.
type DB struct {
	db *sql.DB
}

// Open creates or opens the snapshot file at `path`.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: opening database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "snapshot: creating schema")
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Save replaces the stored snapshot with `rows` in one transaction.
func (d *DB) Save(ctx context.Context, rows []sync.SnapshotRow) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "snapshot: beginning save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return errors.Wrap(err, "snapshot: clearing previous snapshot")
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshots (key, entity, params, single, data, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "snapshot: preparing insert")
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Key.String(), string(row.Key.Entity), row.Key.Params,
			boolToInt(row.Single), row.Data, row.UpdatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrapf(err, "snapshot: inserting %s", row.Key)
		}
	}
	return errors.Wrap(tx.Commit(), "snapshot: committing save")
}

// Load returns every stored row, oldest first.
func (d *DB) Load(ctx context.Context) ([]sync.SnapshotRow, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT entity, params, single, data, updated_at FROM snapshots ORDER BY updated_at`)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: querying rows")
	}
	defer rows.Close()

	var out []sync.SnapshotRow
	for rows.Next() {
		var (
			entity, params string
			single         int
			data           []byte
			updatedAt      time.Time
		)
		if err := rows.Scan(&entity, &params, &single, &data, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "snapshot: scanning row")
		}
		out = append(out, sync.SnapshotRow{
			Key:       sync.Key{Entity: core.Entity(entity), Params: params},
			Single:    single != 0,
			Data:      data,
			UpdatedAt: updatedAt,
		})
	}
	return out, errors.Wrap(rows.Err(), "snapshot: iterating rows")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
