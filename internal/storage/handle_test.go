package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandle(t *testing.T) *Handle {
	t.Helper()
	h := New(filepath.Join(t.TempDir(), "data", "fx.db"), logging.Discard())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpen_CreatesFileAndSchema(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	db, err := h.Open(ctx)
	require.NoError(t, err)

	_, err = os.Stat(h.Path())
	require.NoError(t, err)

	names := tableNames(t, db)
	assert.Contains(t, names, "accounts")
	assert.Contains(t, names, "conversion_history")
	assert.Contains(t, names, "metadata")

	v, err := h.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestDSN_EscapesReservedCharacters(t *testing.T) {
	assert.Equal(t, "file:/tmp/a%3Fb%23c%25d/fx.db?"+pragmas, dsn("/tmp/a?b#c%d/fx.db"))
	assert.Equal(t, "file:fxkeeper.db?"+pragmas, dsn("fxkeeper.db"))
}

func TestOpen_PathWithReservedCharacters(t *testing.T) {
	dir := t.TempDir()
	h := New(filepath.Join(dir, "odd?name#1", "fx.db"), logging.Discard())
	t.Cleanup(func() { _ = h.Close() })

	db, err := h.Open(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(h.Path())
	require.NoError(t, err, "database lives at the configured path")
	_, err = os.Stat(filepath.Join(dir, "odd"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = db.Exec(`INSERT INTO conversion_history (account_id, from_code, to_code, amount, result, timestamp)
		VALUES (999, 'USD', 'EUR', '1', '1', 0)`)
	require.Error(t, err, "pragmas still apply")
}

func TestOpen_IsIdempotent(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	a, err := h.Open(ctx)
	require.NoError(t, err)
	b, err := h.Open(ctx)
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestOpen_ConcurrentCallersShareConnection(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	got := make([]*sql.DB, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = h.Open(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, got[0], got[i])
	}
}

func TestClose_ThenOpenReinitialises(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	first, err := h.Open(ctx)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO accounts (name, email, email_key, credential) VALUES ('Al', 'al@example.com', 'al@example.com', 'x')`)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close(), "second close is a no-op")

	second, err := h.Open(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	var n int
	require.NoError(t, second.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Equal(t, 1, n, "data survives close/open")
}

func TestForeignKeysEnforced(t *testing.T) {
	h := newHandle(t)
	db, err := h.Open(context.Background())
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO conversion_history (account_id, from_code, to_code, amount, result, timestamp)
		VALUES (999, 'USD', 'EUR', '1', '1', 0)`)
	require.Error(t, err)
}

func TestDeleteAll_RemovesStore(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	db, err := h.Open(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO accounts (name, email, email_key, credential) VALUES ('Al', 'al@example.com', 'al@example.com', 'x')`)
	require.NoError(t, err)

	require.NoError(t, h.DeleteAll())

	_, err = os.Stat(h.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(h.Path() + "-wal")
	assert.ErrorIs(t, err, os.ErrNotExist)

	db, err = h.Open(ctx)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Zero(t, n)
}

func TestDeleteAll_NeverOpened(t *testing.T) {
	h := newHandle(t)
	require.NoError(t, h.DeleteAll())
}

func TestDeleteAll_FailsLoudly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.db")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o700))

	h := New(path, logging.Discard())
	err := h.DeleteAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorageFault)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	h := newHandle(t)
	ctx := context.Background()

	db, err := h.Open(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO goose_db_version (version_id, is_applied) VALUES (2, 1)`)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Open(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSchemaTooNew)

	// the failed open must not leave a half-initialised handle behind
	_, err = h.Open(ctx)
	assert.ErrorIs(t, err, common.ErrSchemaTooNew)
}

func TestOpen_ProviderErrorIsStorageFault(t *testing.T) {
	orig := newProvider
	t.Cleanup(func() { newProvider = orig })
	newProvider = func(*sql.DB) (*goose.Provider, error) { return nil, errors.New("no migrations") }

	h := newHandle(t)
	_, err := h.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorageFault)
}
