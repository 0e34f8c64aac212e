package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/dbx"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/wallets"
)

const selectPayment = `SELECT reference, email, requested_amount, credited_amount, status, created_at, updated_at
		 FROM payments
		 WHERE reference = $1`

// PostgresRepository needs the *sql.DB itself because Settle opens its own
// transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) error {
	query :=
		`INSERT INTO payments (reference, email, requested_amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (reference) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, p.Reference, p.Email, p.RequestedAmount, string(p.Status), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

func scanPayment(row *sql.Row) (*models.Payment, error) {
	p := &models.Payment{}
	var credited decimal.NullDecimal
	var status string

	err := row.Scan(&p.Reference, &p.Email, &p.RequestedAmount, &credited, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if credited.Valid {
		p.CreditedAmount = credited.Decimal
	}
	p.Status = models.PaymentStatus(status)
	return p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, reference string) (*models.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx, selectPayment, reference))
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, reference string) error {
	query :=
		`UPDATE payments SET status = $2, updated_at = $3
		 WHERE reference = $1 AND status = $4
		 `

	_, err := r.db.ExecContext(ctx, query, reference, string(models.PaymentFailed), time.Now().UTC(), string(models.PaymentInitialized))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Settle(ctx context.Context, reference string, amount decimal.Decimal) (*Settlement, error) {
	var s *Settlement

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := scanPayment(tx.QueryRowContext(ctx, selectPayment+" FOR UPDATE", reference))
		if err != nil {
			return err
		}
		if p.Status == models.PaymentVerified {
			return common.ErrAlreadyProcessed
		}

		p.Status = models.PaymentVerified
		p.CreditedAmount = amount
		p.UpdatedAt = time.Now().UTC()

		update :=
			`UPDATE payments SET status = $2, credited_amount = $3, updated_at = $4
			 WHERE reference = $1
			 `
		if _, err := tx.ExecContext(ctx, update, reference, string(p.Status), amount, p.UpdatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		balance, err := wallets.NewPostgresRepository(tx).Credit(ctx, p.Email, amount)
		if err != nil {
			return err
		}

		s = &Settlement{Payment: *p, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
