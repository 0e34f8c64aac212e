package payments

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Crediter applies a credit to a wallet.
type Crediter interface {
	Credit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error)
}

// MemoryRepository keeps payments in process memory. Settle holds the
// repository lock across the status check, the wallet credit and the status
// change, so concurrent settlements of one reference cannot both credit.
type MemoryRepository struct {
	mu       sync.Mutex
	payments map[string]models.Payment
	wallets  Crediter
}

func NewMemoryRepository(wallets Crediter) *MemoryRepository {
	return &MemoryRepository{payments: make(map[string]models.Payment), wallets: wallets}
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[p.Reference]; ok {
		return common.ErrAlreadyExists
	}
	r.payments[p.Reference] = *p
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, reference string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[reference]
	if !ok {
		return nil, common.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) MarkFailed(_ context.Context, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[reference]
	if !ok {
		return common.ErrPaymentNotFound
	}
	if p.Status != models.PaymentInitialized {
		return nil
	}
	p.Status = models.PaymentFailed
	p.UpdatedAt = time.Now().UTC()
	r.payments[reference] = p
	return nil
}

func (r *MemoryRepository) Settle(ctx context.Context, reference string, amount decimal.Decimal) (*Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[reference]
	if !ok {
		return nil, common.ErrPaymentNotFound
	}
	if p.Status == models.PaymentVerified {
		return nil, common.ErrAlreadyProcessed
	}

	balance, err := r.wallets.Credit(ctx, p.Email, amount)
	if err != nil {
		return nil, err
	}

	p.Status = models.PaymentVerified
	p.CreditedAmount = amount
	p.UpdatedAt = time.Now().UTC()
	r.payments[reference] = p

	return &Settlement{Payment: p, Balance: balance}, nil
}
