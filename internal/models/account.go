// Package models defines the data records owned by the fxkeeper core.
package models

import "golang.org/x/text/cases"

// Account is a registered user's identity record.
//
// ID is zero until the account store assigns one; it never changes after.
// Credential holds the encoded hash produced by the configured hasher.
// The JSON form is the persisted session snapshot.
type Account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

// Persisted reports whether the store has assigned an id.
func (a *Account) Persisted() bool {
	return a != nil && a.ID > 0
}

// EmailKey returns the Unicode case-folded form of email used for uniqueness
// and lookup. The address itself is stored as entered.
func EmailKey(email string) string {
	return cases.Fold().String(email)
}
