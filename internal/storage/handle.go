// Package storage owns the single SQLite connection of the process.
//
// A Handle is created once (see internal/app) and passed to every
// repository as a dbx.Connector. The first Open creates the database file,
// refuses schemas written by a newer build and applies the embedded goose
// migrations; every later Open returns the same *sql.DB until Close or
// DeleteAll resets the handle.
package storage

import (
	"context"
	"database/sql"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/filex"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Handle lazily opens and memoizes the database connection.
// It is safe for concurrent use.
type Handle struct {
	path string
	log  logging.Logger

	mu sync.Mutex
	db *sql.DB
}

// New returns an unopened handle for the SQLite file at path.
func New(path string, log logging.Logger) *Handle {
	if log == nil {
		log = logging.Discard()
	}
	return &Handle{path: path, log: log.With("component", "storage")}
}

// Path returns the database file path.
func (h *Handle) Path() string { return h.path }

// Open returns the shared connection, initialising it on first use.
// Concurrent callers block until the first initialisation finishes and then
// all receive the same *sql.DB.
func (h *Handle) Open(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		return h.db, nil
	}

	db, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

func (h *Handle) open(ctx context.Context) (*sql.DB, error) {
	if err := filex.EnsureParentDir(h.path); err != nil {
		return nil, common.StorageFault("open store", err)
	}

	db, err := sql.Open("sqlite", dsn(h.path))
	if err != nil {
		return nil, common.StorageFault("open store", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.StorageFault("open store", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		h.log.Error(ctx, "schema migration failed", "path", h.path, "error", err)
		return nil, err
	}

	h.log.Debug(ctx, "store opened", "path", h.path)
	return db, nil
}

// dsn builds the SQLite URI for path. The path is percent-escaped so that
// '?', '#' and '%' in file or directory names stay part of the path.
func dsn(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + pragmas
}

// Close releases the connection. A later Open re-initialises from scratch.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeLocked()
}

func (h *Handle) closeLocked() error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	if err != nil {
		return common.StorageFault("close store", err)
	}
	return nil
}

// DeleteAll closes the connection (if open) and removes the database file
// together with its WAL and shared-memory sidecars. A file that cannot be
// removed is reported; the caller decides whether to retry.
func (h *Handle) DeleteAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.closeLocked(); err != nil {
		return err
	}
	if err := filex.RemoveFiles(h.path, h.path+"-wal", h.path+"-shm"); err != nil {
		return common.StorageFault("delete store", err)
	}
	h.log.Info(context.Background(), "store deleted", "path", h.path)
	return nil
}

// SchemaVersion returns the schema version recorded in the open store.
func (h *Handle) SchemaVersion(ctx context.Context) (int64, error) {
	db, err := h.Open(ctx)
	if err != nil {
		return 0, err
	}
	return readSchemaVersion(ctx, db)
}
