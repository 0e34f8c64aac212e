package users

import (
	"context"

	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Repository stores users keyed by email.
//
// Create stores the user together with its wallet in one atomic step and
// returns common.ErrAlreadyExists when the email is taken. GetByEmail returns
// common.ErrNotFound for unknown emails.
type Repository interface {
	Create(ctx context.Context, user *models.User, wallet *models.Wallet) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
