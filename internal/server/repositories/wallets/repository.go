// Package wallets stores wallet balances and applies credits and debits.
package wallets

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Repository mutates wallet balances. Credit and Debit return the new balance.
//
// Debit checks and decrements the balance in one atomic step per wallet and
// fails with common.ErrInsufficientBalance when balance < amount. Both return
// common.ErrUnknownAccount for unknown emails and common.ErrInvalidAmount for
// non-positive amounts; a failed call leaves the balance unchanged.
type Repository interface {
	Get(ctx context.Context, email string) (*models.Wallet, error)
	Credit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error)
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", common.ErrInvalidAmount, amount)
	}
	return nil
}
