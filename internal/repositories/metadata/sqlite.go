package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/dbx"
)

type SQLiteRepository struct {
	conn dbx.Connector
}

func NewSQLiteRepository(conn dbx.Connector) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.StorageFault(fmt.Sprintf("get metadata[%s]", key), err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return common.StorageFault(fmt.Sprintf("set metadata[%s]", key), err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return common.StorageFault(fmt.Sprintf("delete metadata[%s]", key), err)
	}
	return nil
}

// List returns every pair whose key starts with prefix ("" lists all).
func (r *SQLiteRepository) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM metadata WHERE substr(key, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		return nil, common.StorageFault("list metadata", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, common.StorageFault("scan metadata row", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFault("iterate metadata rows", err)
	}
	return result, nil
}
