package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet belongs to exactly one User and shares its email key.
// Balance is never negative.
type Wallet struct {
	Email     string
	Balance   decimal.Decimal
	DataBonus int64
	UpdatedAt time.Time
}

// ReceivingAccount is the cosmetic virtual account shown on the dashboard.
// It is demo data, not a real banking identifier.
type ReceivingAccount struct {
	Number string `json:"account_number"`
	Bank   string `json:"bank_name"`
}
