// Package money converts between major currency units (naira, dollars) and
// the minor units (kobo, cents) used on the payment gateway wire.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
)

// MinorExponent is the number of decimal places between major and minor units.
const MinorExponent = 2

// ToMinor converts a positive major-unit amount to minor units.
// Amounts with precision finer than one minor unit are rejected.
func ToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be positive", common.ErrInvalidAmount, amount)
	}
	minor := amount.Shift(MinorExponent)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", common.ErrInvalidAmount, amount, MinorExponent)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s is too large", common.ErrInvalidAmount, amount)
	}
	return minor.IntPart(), nil
}

// FromMinor converts minor units back to an exact major-unit amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorExponent)
}

// Parse reads a user-supplied amount such as "1000" or "250.50".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", common.ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be positive", common.ErrInvalidAmount, s)
	}
	return d, nil
}
