package wallets

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// account serializes all balance changes of one wallet.
type account struct {
	mu     sync.Mutex
	wallet models.Wallet
}

// MemoryRepository keeps wallets in process memory with a lock per wallet,
// so operations on different wallets never wait on each other.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*account)}
}

// Open registers a new wallet.
func (r *MemoryRepository) Open(wallet models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[wallet.Email]; ok {
		return common.ErrAlreadyExists
	}
	if wallet.UpdatedAt.IsZero() {
		wallet.UpdatedAt = time.Now().UTC()
	}
	r.accounts[wallet.Email] = &account{wallet: wallet}
	return nil
}

func (r *MemoryRepository) lookup(email string) (*account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[email]
	if !ok {
		return nil, common.ErrUnknownAccount
	}
	return a, nil
}

func (r *MemoryRepository) Get(_ context.Context, email string) (*models.Wallet, error) {
	a, err := r.lookup(email)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	w := a.wallet
	return &w, nil
}

func (r *MemoryRepository) Credit(_ context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}
	a, err := r.lookup(email)
	if err != nil {
		return decimal.Zero, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.wallet.Balance = a.wallet.Balance.Add(amount)
	a.wallet.UpdatedAt = time.Now().UTC()
	return a.wallet.Balance, nil
}

func (r *MemoryRepository) Debit(_ context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}
	a, err := r.lookup(email)
	if err != nil {
		return decimal.Zero, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.wallet.Balance.LessThan(amount) {
		return a.wallet.Balance, common.ErrInsufficientBalance
	}
	a.wallet.Balance = a.wallet.Balance.Sub(amount)
	a.wallet.UpdatedAt = time.Now().UTC()
	return a.wallet.Balance, nil
}
