package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/cryptox"
	"github.com/dmitrijs2005/fxkeeper/internal/dbx"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
)

const selectAccount = `SELECT id, name, email, credential FROM accounts`

// SQLiteRepository implements Repository on top of the shared SQLite store.
type SQLiteRepository struct {
	conn   dbx.Connector
	hasher cryptox.Hasher

	dummyOnce sync.Once
	dummy     string
}

// NewSQLiteRepository binds the repository to a connector. The hasher is used
// by FindByCredentials to verify stored credentials.
func NewSQLiteRepository(conn dbx.Connector, hasher cryptox.Hasher) *SQLiteRepository {
	return &SQLiteRepository{conn: conn, hasher: hasher}
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return nil, err
	}
	return scanAccount(db.QueryRowContext(ctx, selectAccount+` WHERE email_key = ?`, models.EmailKey(email)), "find account by email")
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	db, err := r.conn.Open(ctx)
	if err != nil {
		return nil, err
	}
	return scanAccount(db.QueryRowContext(ctx, selectAccount+` WHERE id = ?`, id), "find account by id")
}

// FindByCredentials returns the account whose email matches and whose stored
// hash verifies credential. Unknown email and wrong credential both yield
// (nil, nil); for an unknown email a verification against a throwaway hash
// still runs.
func (r *SQLiteRepository) FindByCredentials(ctx context.Context, email, credential string) (*models.Account, error) {
	acc, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		r.hasher.Verify(r.dummyHash(), credential)
		return nil, nil
	}
	if !r.hasher.Verify(acc.Credential, credential) {
		return nil, nil
	}
	return acc, nil
}

func (r *SQLiteRepository) dummyHash() string {
	r.dummyOnce.Do(func() {
		seed, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		if h, err := r.hasher.Hash(seed); err == nil {
			r.dummy = h
		}
	})
	return r.dummy
}

// Insert stores a new account and returns the assigned id.
func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Account) (int64, error) {
	if a == nil || a.ID != 0 {
		return 0, fmt.Errorf("%w: account already has an id", common.ErrInvalidArgument)
	}

	db, err := r.conn.Open(ctx)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO accounts (name, email, email_key, credential) VALUES (?, ?, ?, ?)`,
		a.Name, a.Email, models.EmailKey(a.Email), a.Credential)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, common.ErrDuplicateEmail
		}
		return 0, common.StorageFault("insert account", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, common.StorageFault("insert account", err)
	}
	return id, nil
}

// Update overwrites name, email and credential of an existing account.
func (r *SQLiteRepository) Update(ctx context.Context, a *models.Account) error {
	if a == nil || a.ID <= 0 {
		return fmt.Errorf("%w: account id must be positive", common.ErrInvalidArgument)
	}

	db, err := r.conn.Open(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, email = ?, email_key = ?, credential = ? WHERE id = ?`,
		a.Name, a.Email, models.EmailKey(a.Email), a.Credential, a.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateEmail
		}
		return common.StorageFault("update account", err)
	}
	return expectOneRow(res, "update account")
}

// Delete removes the account and its conversion history atomically.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: account id must be positive", common.ErrInvalidArgument)
	}

	db, err := r.conn.Open(ctx)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversion_history WHERE account_id = ?`, id); err != nil {
			return common.StorageFault("delete account history", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return common.StorageFault("delete account", err)
		}
		return expectOneRow(res, "delete account")
	})
}

func scanAccount(row *sql.Row, op string) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Credential)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.StorageFault(op, err)
	}
	return &a, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.StorageFault(op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
