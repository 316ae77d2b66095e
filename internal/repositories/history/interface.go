// Package history stores the append-only log of completed conversions.
package history

import (
	"context"

	"github.com/dmitrijs2005/fxkeeper/internal/models"
)

// Repository appends and lists conversion records per account.
type Repository interface {
	Append(ctx context.Context, rec models.ConversionRecord) error
	ListForAccount(ctx context.Context, accountID int64) ([]models.ConversionRecord, error)
}
