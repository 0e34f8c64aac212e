package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// WalletOpener creates the wallet that accompanies a new user.
type WalletOpener interface {
	Open(wallet models.Wallet) error
}

// MemoryRepository keeps users in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]models.User
	wallets WalletOpener
}

func NewMemoryRepository(wallets WalletOpener) *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User), wallets: wallets}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User, wallet *models.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return common.ErrAlreadyExists
	}
	if err := r.wallets.Open(*wallet); err != nil {
		return err
	}
	r.users[user.Email] = *user
	return nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}
