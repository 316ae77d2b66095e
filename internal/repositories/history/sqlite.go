package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/dbx"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/shopspring/decimal"
)

// SQLiteRepository keeps amounts as decimal TEXT and timestamps as
// Unix nanoseconds.
type SQLiteRepository struct {
	conn dbx.Connector
}

func NewSQLiteRepository(conn dbx.Connector) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// Append inserts rec. The owning account must exist; the check happens in
// the same statement so a concurrent delete cannot leave an orphan row.
func (r *SQLiteRepository) Append(ctx context.Context, rec models.ConversionRecord) error {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO conversion_history (account_id, from_code, to_code, amount, result, timestamp)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM accounts WHERE id = ?)
	`, rec.AccountID, rec.FromCode, rec.ToCode, rec.Amount.String(), rec.Result.String(),
		rec.Timestamp.UnixNano(), rec.AccountID)
	if err != nil {
		return common.StorageFault("append conversion", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageFault("append conversion", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", rec.AccountID, common.ErrNotFound)
	}
	return nil
}

// ListForAccount returns the account's records oldest first; records with the
// same timestamp keep insertion order. The result is never nil.
func (r *SQLiteRepository) ListForAccount(ctx context.Context, accountID int64) ([]models.ConversionRecord, error) {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT account_id, from_code, to_code, amount, result, timestamp
		FROM conversion_history
		WHERE account_id = ?
		ORDER BY timestamp, id
	`, accountID)
	if err != nil {
		return nil, common.StorageFault("list conversions", err)
	}
	defer rows.Close()

	result := []models.ConversionRecord{}
	for rows.Next() {
		var (
			rec            models.ConversionRecord
			amount, output string
			ts             int64
		)
		if err := rows.Scan(&rec.AccountID, &rec.FromCode, &rec.ToCode, &amount, &output, &ts); err != nil {
			return nil, common.StorageFault("scan conversion", err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, common.StorageFault("decode conversion amount", err)
		}
		if rec.Result, err = decimal.NewFromString(output); err != nil {
			return nil, common.StorageFault("decode conversion result", err)
		}
		rec.Timestamp = time.Unix(0, ts).UTC()
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFault("iterate conversions", err)
	}
	return result, nil
}
