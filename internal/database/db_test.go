package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenAppliesConnectionPragmas(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.Equal(t, 1, fk)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	_, err := db.Exec(`CREATE TABLE notes (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO notes (id) VALUES ('n1')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	require.Zero(t, n)

	require.NoError(t, WithTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO notes (id) VALUES ('n1')`)
		return err
	}))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestNowIsSecondGranularUTC(t *testing.T) {
	t.Parallel()

	now := Now()
	require.Equal(t, time.UTC, now.Location())
	require.Zero(t, now.Nanosecond())
	// Surviving a store round-trip means truncating again changes nothing.
	require.True(t, now.Equal(now.Truncate(time.Second)))
}
