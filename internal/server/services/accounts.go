// Package services contains the wallet's business logic: accounts, the
// funding flow against the payment gateway and airtime/data purchases.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/cryptox"
	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/users"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/wallets"
)

// AccountService owns users and their wallets.
type AccountService struct {
	users     users.Repository
	wallets   wallets.Repository
	sanitizer *bluemonday.Policy
	log       logging.Logger
	now       func() time.Time

	// dummySalt and dummyHash are verified against when the email is unknown,
	// so a failed login costs the same either way.
	dummySalt []byte
	dummyHash []byte
}

func NewAccountService(m repomanager.RepositoryManager, log logging.Logger) *AccountService {
	salt, hash := cryptox.HashPassword(common.MakeRandHexString(16))
	return &AccountService{
		users:     m.Users(),
		wallets:   m.Wallets(),
		sanitizer: bluemonday.StrictPolicy(),
		log:       log.With("module", "accounts"),
		now:       time.Now,
		dummySalt: salt,
		dummyHash: hash,
	}
}

// NormalizeEmail is the canonical form under which accounts are keyed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and a zero-balance wallet carrying the starting
// data bonus. The display name is stripped of any markup.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(s.sanitizer.Sanitize(username))
	if email == "" || username == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}

	salt, hash := cryptox.HashPassword(password)
	now := s.now().UTC()
	user := &models.User{
		Email:        email,
		Username:     username,
		Salt:         salt,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	wallet := &models.Wallet{
		Email:     email,
		Balance:   decimal.Zero,
		DataBonus: common.StartingDataBonus,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user, wallet); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		s.log.Error(ctx, "register failed", "email", email, "error", err)
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "email", email)
	return user, nil
}

// Authenticate returns common.ErrNotFound or common.ErrInvalidCredential on
// failure. Callers must not tell the two apart to the user.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			cryptox.VerifyPassword(password, s.dummySalt, s.dummyHash)
			return nil, common.ErrNotFound
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, common.ErrInvalidCredential
	}
	return user, nil
}

func (s *AccountService) Credit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.wallets.Credit(ctx, email, amount)
}

func (s *AccountService) Debit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.wallets.Debit(ctx, email, amount)
}

// Wallet returns a snapshot of the user's wallet.
func (s *AccountService) Wallet(ctx context.Context, email string) (*models.Wallet, error) {
	return s.wallets.Get(ctx, email)
}

// RequestPasswordReset pretends to send a reset link. It only checks that
// the account exists and never touches the credential.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}
	s.log.Info(ctx, "password reset requested", "email", email)
	return nil
}
