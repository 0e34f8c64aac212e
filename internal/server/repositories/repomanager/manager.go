// Package repomanager vends the repositories of one storage backend.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/payments"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/users"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/wallets"
)

// RepositoryManager is constructed at process start and closed at shutdown.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Wallets() wallets.Repository
	Payments() payments.Repository
	Close() error
}
