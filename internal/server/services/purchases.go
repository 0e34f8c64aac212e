package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/server/metrics"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/wallets"
)

// PurchaseService spends wallet balance on simulated airtime and data.
// Nothing is sent to a telecom provider.
type PurchaseService struct {
	wallets wallets.Repository
	plans   *PlanCatalog
	metrics *metrics.Metrics
	log     logging.Logger
}

func NewPurchaseService(m repomanager.RepositoryManager, plans *PlanCatalog, mx *metrics.Metrics, log logging.Logger) *PurchaseService {
	return &PurchaseService{
		wallets: m.Wallets(),
		plans:   plans,
		metrics: mx,
		log:     log.With("module", "purchases"),
	}
}

// BuyAirtime debits amount and returns the new balance.
func (s *PurchaseService) BuyAirtime(ctx context.Context, identity string, amount decimal.Decimal) (decimal.Decimal, error) {
	if identity == "" {
		return decimal.Zero, common.ErrUnauthenticated
	}
	return s.debit(ctx, metrics.KindAirtime, identity, amount)
}

// BuyData debits the catalog price of order.PlanID and returns the new
// balance. Unknown plans fail before the wallet is touched.
func (s *PurchaseService) BuyData(ctx context.Context, identity string, order models.DataOrder) (decimal.Decimal, error) {
	if identity == "" {
		return decimal.Zero, common.ErrUnauthenticated
	}
	plan, err := s.plans.Lookup(order.PlanID)
	if err != nil {
		s.metrics.Purchase(metrics.KindData, metrics.OutcomeError)
		return decimal.Zero, err
	}

	balance, err := s.debit(ctx, metrics.KindData, identity, plan.Price)
	if err != nil {
		return balance, err
	}
	s.log.Info(ctx, "data purchased", "email", identity, "network", order.Network, "plan", plan.ID)
	return balance, nil
}

func (s *PurchaseService) debit(ctx context.Context, kind, identity string, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.wallets.Debit(ctx, identity, amount)
	switch {
	case err == nil:
		s.metrics.Purchase(kind, metrics.OutcomeSuccess)
		return balance, nil
	case errors.Is(err, common.ErrInsufficientBalance):
		s.metrics.Purchase(kind, metrics.OutcomeInsufficient)
		return balance, err
	case errors.Is(err, common.ErrInvalidAmount), errors.Is(err, common.ErrUnknownAccount):
		s.metrics.Purchase(kind, metrics.OutcomeError)
		return balance, err
	default:
		s.metrics.Purchase(kind, metrics.OutcomeError)
		s.log.Error(ctx, "debit failed", "kind", kind, "email", identity, "error", err)
		return balance, fmt.Errorf("error debiting wallet: %w", err)
	}
}
