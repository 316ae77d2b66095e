package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/cryptox"
	"github.com/dmitrijs2005/fxkeeper/internal/dbx"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/dmitrijs2005/fxkeeper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ---- helpers ----

func testHasher() cryptox.Hasher {
	return &cryptox.BcryptHasher{Cost: bcrypt.MinCost}
}

func setupRepo(t *testing.T) (*SQLiteRepository, *storage.Handle) {
	t.Helper()
	h := storage.New(t.TempDir()+"/fx.db", logging.Discard())
	t.Cleanup(func() { _ = h.Close() })
	return NewSQLiteRepository(h, testHasher()), h
}

func insert(t *testing.T, r *SQLiteRepository, name, email, credential string) int64 {
	t.Helper()
	hash, err := r.hasher.Hash(credential)
	require.NoError(t, err)
	id, err := r.Insert(context.Background(), &models.Account{Name: name, Email: email, Credential: hash})
	require.NoError(t, err)
	return id
}

// ---- tests ----

func TestInsert_AssignsPositiveIncreasingIDs(t *testing.T) {
	r, _ := setupRepo(t)

	id1 := insert(t, r, "Ann", "ann@example.com", "Secret1!")
	id2 := insert(t, r, "Bob", "bob@example.com", "Secret1!")

	assert.Positive(t, id1)
	assert.Greater(t, id2, id1)
}

func TestInsert_RejectsAccountWithID(t *testing.T) {
	r, _ := setupRepo(t)

	_, err := r.Insert(context.Background(), &models.Account{ID: 7, Name: "Ann", Email: "a@b.io"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestInsert_DuplicateEmailIgnoresCase(t *testing.T) {
	r, _ := setupRepo(t)
	insert(t, r, "Ann", "ann@example.com", "Secret1!")

	_, err := r.Insert(context.Background(), &models.Account{Name: "Other", Email: "ANN@Example.COM", Credential: "x"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestInsert_DuplicateEmailIgnoresNonASCIICase(t *testing.T) {
	r, _ := setupRepo(t)
	id := insert(t, r, "Emile", "émile@example.com", "Secret1!")

	_, err := r.Insert(context.Background(), &models.Account{Name: "Emile2", Email: "ÉMILE@example.com", Credential: "x"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)

	acc, err := r.FindByEmail(context.Background(), "ÉMILE@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "émile@example.com", acc.Email)
}

func TestFindByEmail_CaseInsensitive(t *testing.T) {
	r, _ := setupRepo(t)
	id := insert(t, r, "Ann", "ann@example.com", "Secret1!")

	acc, err := r.FindByEmail(context.Background(), "Ann@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "ann@example.com", acc.Email)

	missing, err := r.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindByID(t *testing.T) {
	r, _ := setupRepo(t)
	id := insert(t, r, "Ann", "ann@example.com", "Secret1!")

	acc, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "Ann", acc.Name)

	missing, err := r.FindByID(context.Background(), id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindByCredentials(t *testing.T) {
	r, _ := setupRepo(t)
	id := insert(t, r, "Ann", "ann@example.com", "Secret1!")
	ctx := context.Background()

	acc, err := r.FindByCredentials(ctx, "ANN@example.com", "Secret1!")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)

	wrong, err := r.FindByCredentials(ctx, "ann@example.com", "Secret2!")
	require.NoError(t, err)
	assert.Nil(t, wrong)

	unknown, err := r.FindByCredentials(ctx, "who@example.com", "Secret1!")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestUpdate(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()
	id := insert(t, r, "Ann", "ann@example.com", "Secret1!")

	require.NoError(t, r.Update(ctx, &models.Account{ID: id, Name: "Anna", Email: "anna@example.com", Credential: "h"}))

	acc, err := r.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, &models.Account{ID: id, Name: "Anna", Email: "anna@example.com", Credential: "h"}, acc)
}

func TestUpdate_DuplicateEmailIgnoresCase(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()
	insert(t, r, "Ann", "ann@example.com", "Secret1!")
	bob := insert(t, r, "Bob", "bob@example.com", "Secret1!")

	err := r.Update(ctx, &models.Account{ID: bob, Name: "Bob", Email: "ANN@example.com", Credential: "h"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestUpdate_SelfEmailChangeOfCaseIsAllowed(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()
	id := insert(t, r, "Ann", "ann@example.com", "Secret1!")

	require.NoError(t, r.Update(ctx, &models.Account{ID: id, Name: "Ann", Email: "Ann@Example.com", Credential: "h"}))
}

func TestUpdate_NotFoundAndInvalid(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	err := r.Update(ctx, &models.Account{ID: 42, Name: "Ghost", Email: "g@example.com"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = r.Update(ctx, &models.Account{Name: "Ghost", Email: "g@example.com"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestDelete_CascadesHistoryAndSecondDeleteIsNotFound(t *testing.T) {
	r, h := setupRepo(t)
	ctx := context.Background()
	ann := insert(t, r, "Ann", "ann@example.com", "Secret1!")
	bob := insert(t, r, "Bob", "bob@example.com", "Secret1!")

	db, err := h.Open(ctx)
	require.NoError(t, err)
	for _, id := range []int64{ann, ann, bob} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO conversion_history (account_id, from_code, to_code, amount, result, timestamp) VALUES (?, 'USD', 'EUR', '1', '0.92', 1)`, id)
		require.NoError(t, err)
	}

	require.NoError(t, r.Delete(ctx, ann))

	var left int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversion_history WHERE account_id = ?`, ann).Scan(&left))
	assert.Zero(t, left)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversion_history WHERE account_id = ?`, bob).Scan(&left))
	assert.Equal(t, 1, left)

	acc, err := r.FindByID(ctx, ann)
	require.NoError(t, err)
	assert.Nil(t, acc)

	assert.ErrorIs(t, r.Delete(ctx, ann), common.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, 0), common.ErrInvalidArgument)
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()
	id1 := insert(t, r, "Ann", "ann@example.com", "Secret1!")
	require.NoError(t, r.Delete(ctx, id1))

	id2 := insert(t, r, "Ann", "ann@example.com", "Secret1!")
	assert.Greater(t, id2, id1)
}

// ---- driver failures ----

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	conn := dbx.ConnectorFunc(func(context.Context) (*sql.DB, error) { return db, nil })
	return NewSQLiteRepository(conn, testHasher()), mock
}

func TestDriverErrorsAreStorageFaults(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("database disk image is malformed")

	t.Run("find", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT id, name, email, credential FROM accounts`).WillReturnError(boom)
		_, err := r.FindByEmail(ctx, "a@b.io")
		assert.ErrorIs(t, err, common.ErrStorageFault)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("insert", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectExec(`INSERT INTO accounts`).WillReturnError(boom)
		_, err := r.Insert(ctx, &models.Account{Name: "Ann", Email: "a@b.io"})
		assert.ErrorIs(t, err, common.ErrStorageFault)
	})

	t.Run("delete rolls back", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM conversion_history`).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM accounts`).WillReturnError(boom)
		mock.ExpectRollback()

		err := r.Delete(ctx, 1)
		assert.ErrorIs(t, err, common.ErrStorageFault)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete missing rolls back", func(t *testing.T) {
		r, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM conversion_history`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := r.Delete(ctx, 1)
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
