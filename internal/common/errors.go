// Package common defines sentinel errors and small helpers shared by the
// wallet server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Authentication errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid token")

	// Wallet errors.
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAccount      = errors.New("unknown account")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Payment gateway errors.
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")

	// Funding flow errors.
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyProcessed = errors.New("payment already processed")
	ErrPaymentDeclined  = errors.New("payment not successful")

	// Purchase errors.
	ErrUnknownPlan = errors.New("unknown data plan")

	// Generic service errors.
	ErrValidation = errors.New("validation error")
	ErrInternal   = errors.New("internal error")
)
