// Package services contains the application services of fxkeeper.
//
// IdentityService runs the account lifecycle (register, login, logout,
// update, delete) and is the only writer of the session cache.
// ConversionService converts amounts with cached exchange rates and records
// the conversions of the signed-in account.
package services

import (
	"context"

	"github.com/dmitrijs2005/fxkeeper/internal/models"
	"github.com/dmitrijs2005/fxkeeper/internal/session"
	"github.com/shopspring/decimal"
)

// SessionCache is the part of session.Cache the services use.
type SessionCache interface {
	Current() session.State
	Activate(ctx context.Context, acc *models.Account) error
	Clear(ctx context.Context) error
}

// RateCache is the part of rates.Cache the services use.
type RateCache interface {
	Fetch(ctx context.Context, base string) (*models.RateTable, error)
	Get(base string) *models.RateTable
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}
