package accounts

import (
	"context"

	"github.com/dmitrijs2005/fxkeeper/internal/models"
)

// Repository abstracts account persistence.
//
// Lookups return (nil, nil) when nothing matches. Mutations report
// common.ErrNotFound, common.ErrDuplicateEmail or common.ErrInvalidArgument;
// anything else is a common.ErrStorageFault.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByCredentials(ctx context.Context, email, credential string) (*models.Account, error)
	Insert(ctx context.Context, a *models.Account) (int64, error)
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, id int64) error
}
