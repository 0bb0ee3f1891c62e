// Package storage provides the named-slot key/value store that backs the
// client's persisted state, the Go counterpart of browser localStorage.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

// Storage is a flat map of named string slots.
type Storage interface {
	// GetItem returns the value stored under key, or ("", false, nil) if unset.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing an unset key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// DB is a Storage backed by a SQLite file.
type DB struct {
	db   *sql.DB
	path string
}

var _ Storage = (*DB)(nil)

// Open opens (or creates) the SQLite database at path and initialises the schema.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("storage.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("storage.Open createSchema: %w", err)
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createSchema() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS local_storage (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

// GetItem implements Storage.
func (d *DB) GetItem(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage.GetItem: %w", err)
	}
	return val, true, nil
}

// SetItem implements Storage.
func (d *DB) SetItem(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO local_storage (key, value) VALUES (?, ?)`, key, value,
	)
	if err != nil {
		return fmt.Errorf("storage.SetItem: %w", err)
	}
	return nil
}

// RemoveItem implements Storage.
func (d *DB) RemoveItem(ctx context.Context, key string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage.RemoveItem: %w", err)
	}
	return nil
}
