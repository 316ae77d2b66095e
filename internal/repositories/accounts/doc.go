// Package accounts provides durable storage of user identity records.
//
// # Overview
//
// The package defines a Repository interface used by the identity service and
// a SQLite implementation (SQLiteRepository) that borrows the shared
// connection from a dbx.Connector on every call.
//
// # Invariants
//
// Email is unique ignoring letter case, including non-ASCII letters. Each row
// carries email_key, the Unicode case-folded address (models.EmailKey), and
// the UNIQUE constraint sits on that column so the guarantee holds even when
// two writers race past the service-level pre-check. Ids are assigned by the store and are always
// positive. Deleting an account removes its conversion history in the same
// transaction.
//
// Typical Usage
//
//	repo := accounts.NewSQLiteRepository(handle, hasher)
//	id, err := repo.Insert(ctx, &models.Account{Name: "Ann", Email: "ann@x.io", Credential: hash})
//	acc, err := repo.FindByCredentials(ctx, "ANN@x.io", "Secret1!")
//	err = repo.Delete(ctx, id)
package accounts
