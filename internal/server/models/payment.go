package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of one funding attempt.
type PaymentStatus string

const (
	PaymentInitialized PaymentStatus = "initialized"
	PaymentVerified    PaymentStatus = "verified"
	PaymentFailed      PaymentStatus = "failed"
)

// Payment records one initialize -> verify cycle with the gateway.
// RequestedAmount is what the user asked for; CreditedAmount is what the
// gateway reported on verification and is the only amount ever credited.
type Payment struct {
	Reference       string
	Email           string
	RequestedAmount decimal.Decimal
	CreditedAmount  decimal.Decimal
	Status          PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Receipt is the archived record of a credited payment.
type Receipt struct {
	Reference  string          `json:"reference"`
	Email      string          `json:"email"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	CreditedAt time.Time       `json:"credited_at"`
}
