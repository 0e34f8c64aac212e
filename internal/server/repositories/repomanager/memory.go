package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/payments"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/users"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/wallets"
)

// MemoryRepositoryManager keeps all state in process memory. It is the
// default backend and the one used by tests.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	wallets  *wallets.MemoryRepository
	payments *payments.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	w := wallets.NewMemoryRepository()
	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(w),
		wallets:  w,
		payments: payments.NewMemoryRepository(w),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Users() users.Repository             { return m.users }
func (m *MemoryRepositoryManager) Wallets() wallets.Repository         { return m.wallets }
func (m *MemoryRepositoryManager) Payments() payments.Repository       { return m.payments }
func (m *MemoryRepositoryManager) Close() error                        { return nil }
