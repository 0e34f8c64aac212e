// Package payments records funding attempts and settles them against wallets
// at most once per reference.
package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Settlement is the outcome of crediting a verified payment.
type Settlement struct {
	Payment models.Payment
	Balance decimal.Decimal
}

// Repository persists payments.
//
// Settle marks the payment verified with the gateway-reported amount and
// credits the owner's wallet by that amount in one atomic step. A reference
// that is already verified yields common.ErrAlreadyProcessed and leaves the
// wallet untouched; an unknown reference yields common.ErrPaymentNotFound.
type Repository interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, reference string) (*models.Payment, error)
	MarkFailed(ctx context.Context, reference string) error
	Settle(ctx context.Context, reference string, amount decimal.Decimal) (*Settlement, error)
}
