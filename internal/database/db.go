// Package database opens the ledgerview sqlite store and applies its schema.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the records database. WAL keeps reads cheap while a mutation is
// in flight; the single connection matches the shell's one-writer event loop.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// WithTx runs fn inside a transaction, rolling back on error.
func WithTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now is the timestamp source for updated_at bumps. Second granularity keeps
// the value stable across a store round-trip, which the stale-edit comparison
// on UpdatedAt depends on.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
