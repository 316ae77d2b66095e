package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/migrations"
	"github.com/pressly/goose/v3"
)

// versionTable is where goose records applied migrations.
const versionTable = "goose_db_version"

// newProvider is a seam for tests.
var newProvider = func(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
}

// migrate applies pending forward migrations. A database whose recorded
// version is above the newest embedded migration was written by a newer
// build and is rejected before anything is written to it.
func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return common.StorageFault("load migrations", err)
	}

	current, err := readSchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	latest := latestVersion(provider)
	if current > latest {
		return fmt.Errorf("%w: db=%d code=%d", common.ErrSchemaTooNew, current, latest)
	}

	if _, err := provider.Up(ctx); err != nil {
		return common.StorageFault("apply migrations", err)
	}
	return nil
}

func latestVersion(p *goose.Provider) int64 {
	var max int64
	for _, s := range p.ListSources() {
		if s.Version > max {
			max = s.Version
		}
	}
	return max
}

// readSchemaVersion reads the applied version straight from goose's
// bookkeeping table. A fresh database has no table and is at version 0.
func readSchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		versionTable).Scan(&n)
	if err != nil {
		return 0, common.StorageFault("read schema version", err)
	}
	if n == 0 {
		return 0, nil
	}

	var v sql.NullInt64
	err = db.QueryRowContext(ctx,
		`SELECT MAX(version_id) FROM `+versionTable+` WHERE is_applied = 1`).Scan(&v)
	if err != nil {
		return 0, common.StorageFault("read schema version", err)
	}
	return v.Int64, nil
}
