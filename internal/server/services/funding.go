package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/money"
	"github.com/dmitrijs2005/gopherwallet/internal/server/gateway"
	"github.com/dmitrijs2005/gopherwallet/internal/server/metrics"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/receipts"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/payments"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/repomanager"
)

// PaymentGateway is the part of gateway.Client the funding flow uses.
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amountMinor int64, callbackURL string) (*gateway.Initialization, error)
	Verify(ctx context.Context, reference string) (*gateway.Verification, error)
}

// FundingService runs initialize -> redirect -> callback -> verify -> credit.
//
// Only the amount the gateway reports on verification is ever credited, and
// each reference is credited at most once: payments.Repository.Settle marks
// the payment verified and credits the wallet in one atomic step.
type FundingService struct {
	payments    payments.Repository
	gateway     PaymentGateway
	archive     receipts.Archive
	metrics     *metrics.Metrics
	callbackURL string
	log         logging.Logger
	now         func() time.Time
}

func NewFundingService(m repomanager.RepositoryManager, gw PaymentGateway, archive receipts.Archive,
	mx *metrics.Metrics, callbackURL string, log logging.Logger) *FundingService {
	if archive == nil {
		archive = receipts.NopArchive{}
	}
	return &FundingService{
		payments:    m.Payments(),
		gateway:     gw,
		archive:     archive,
		metrics:     mx,
		callbackURL: callbackURL,
		log:         log.With("module", "funding"),
		now:         time.Now,
	}
}

// Initiate validates amount, opens a gateway transaction and records it as
// initialized. The returned AuthorizationURL is where the browser goes next.
func (s *FundingService) Initiate(ctx context.Context, identity string, amount decimal.Decimal) (*gateway.Initialization, error) {
	if identity == "" {
		return nil, common.ErrUnauthenticated
	}
	minor, err := money.ToMinor(amount)
	if err != nil {
		return nil, err
	}

	ini, err := s.gateway.Initialize(ctx, identity, minor, s.callbackURL)
	if err != nil {
		s.recordGatewayError(ctx, "initialize", err)
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Payment{
		Reference:       ini.Reference,
		Email:           identity,
		RequestedAmount: amount,
		Status:          models.PaymentInitialized,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		s.metrics.FundingOutcome(metrics.FundingError)
		s.log.Error(ctx, "payment record failed", "reference", ini.Reference, "error", err)
		return nil, fmt.Errorf("error recording payment: %w", err)
	}

	s.metrics.FundingOutcome(metrics.FundingInitiated)
	s.log.Info(ctx, "funding initiated", "email", identity, "reference", ini.Reference, "amount", amount)
	return ini, nil
}

// Complete handles the gateway callback for reference. The gateway is not
// called unless the caller is authenticated and owns the reference.
func (s *FundingService) Complete(ctx context.Context, identity, reference string) (*payments.Settlement, error) {
	if identity == "" {
		return nil, common.ErrUnauthenticated
	}
	if reference == "" {
		return nil, common.ErrPaymentNotFound
	}

	p, err := s.payments.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, common.ErrPaymentNotFound) {
			return nil, err
		}
		s.metrics.FundingOutcome(metrics.FundingError)
		return nil, fmt.Errorf("error loading payment: %w", err)
	}
	if p.Email != identity {
		s.log.Warn(ctx, "callback for foreign reference", "email", identity, "reference", reference)
		return nil, common.ErrPaymentNotFound
	}
	if p.Status == models.PaymentVerified {
		s.metrics.FundingOutcome(metrics.FundingDuplicate)
		return nil, common.ErrAlreadyProcessed
	}

	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.recordGatewayError(ctx, "verify", err)
		return nil, err
	}

	if !v.Succeeded() {
		return nil, s.reject(ctx, reference, fmt.Errorf("%w: gateway status %q", common.ErrPaymentDeclined, v.Status))
	}
	amount := v.Amount()
	if !amount.IsPositive() {
		return nil, s.reject(ctx, reference, fmt.Errorf("%w: verified amount %s", common.ErrInvalidAmount, amount))
	}
	if !amount.Equal(p.RequestedAmount) {
		s.log.Warn(ctx, "verified amount differs from requested",
			"reference", reference, "requested", p.RequestedAmount, "verified", amount)
	}

	settlement, err := s.payments.Settle(ctx, reference, amount)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyProcessed) {
			s.metrics.FundingOutcome(metrics.FundingDuplicate)
			return nil, err
		}
		s.metrics.FundingOutcome(metrics.FundingError)
		s.log.Error(ctx, "settle failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("error settling payment: %w", err)
	}

	s.metrics.FundingOutcome(metrics.FundingCredited)
	s.log.Info(ctx, "wallet funded", "email", identity, "reference", reference,
		"amount", amount, "balance", settlement.Balance)
	s.storeReceipt(ctx, settlement)
	return settlement, nil
}

func (s *FundingService) reject(ctx context.Context, reference string, cause error) error {
	s.metrics.FundingOutcome(metrics.FundingRejected)
	if err := s.payments.MarkFailed(ctx, reference); err != nil {
		s.log.Error(ctx, "mark failed", "reference", reference, "error", err)
	}
	s.log.Info(ctx, "funding rejected", "reference", reference, "reason", cause)
	return cause
}

func (s *FundingService) recordGatewayError(ctx context.Context, op string, err error) {
	if errors.Is(err, common.ErrGatewayRejected) {
		s.metrics.FundingOutcome(metrics.FundingRejected)
	} else {
		s.metrics.FundingOutcome(metrics.FundingError)
	}
	s.log.Warn(ctx, "gateway call failed", "op", op, "error", err)
}

func (s *FundingService) storeReceipt(ctx context.Context, st *payments.Settlement) {
	r := &models.Receipt{
		Reference:  st.Payment.Reference,
		Email:      st.Payment.Email,
		Amount:     st.Payment.CreditedAmount,
		Balance:    st.Balance,
		CreditedAt: st.Payment.UpdatedAt,
	}
	key, err := s.archive.Store(ctx, r)
	if err != nil {
		s.log.Error(ctx, "receipt archive failed", "reference", r.Reference, "error", err)
		return
	}
	s.log.Debug(ctx, "receipt archived", "key", key)
}
