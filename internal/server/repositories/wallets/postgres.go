package wallets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/dbx"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// PostgresRepository relies on single-statement conditional updates, so the
// row lock taken by UPDATE serializes concurrent changes to one wallet.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.Wallet, error) {
	query :=
		`SELECT email, balance, data_bonus, updated_at FROM wallets
		 WHERE email = $1
		 `

	w := &models.Wallet{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&w.Email, &w.Balance, &w.DataBonus, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUnknownAccount
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}

	query :=
		`UPDATE wallets SET balance = balance + $2, updated_at = now()
		 WHERE email = $1
		 RETURNING balance
		 `

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, email, amount).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, common.ErrUnknownAccount
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

func (r *PostgresRepository) Debit(ctx context.Context, email string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}

	query :=
		`UPDATE wallets SET balance = balance - $2, updated_at = now()
		 WHERE email = $1 AND balance >= $2
		 RETURNING balance
		 `

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, email, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}

	// nothing updated: either no such wallet or not enough funds
	w, err := r.Get(ctx, email)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, common.ErrInsufficientBalance
}
