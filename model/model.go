// Package model defines the data structures shared by the ledger packages.
//
// Monetary values use github.com/shopspring/decimal rather than float64: balances
// must add and subtract exactly, and binary floating point cannot represent most
// decimal fractions (0.1 + 0.2 != 0.3).
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CashPlaces is the number of fractional digits kept for cash amounts.
const CashPlaces = 2

// QuantityPlaces is the number of fractional digits kept for crypto quantities.
const QuantityPlaces = 8

// Currency is an ISO 4217 code supported by the ledger.
type Currency string

const (
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	USD Currency = "USD"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case EUR, GBP, USD:
		return true
	}
	return false
}

// ParseCurrency validates s as a supported currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, s)
	}
	return c, nil
}

// Cash rounds d to whole cents.
func Cash(d decimal.Decimal) decimal.Decimal {
	return d.Round(CashPlaces)
}

// IsCents reports whether d has no digits beyond whole cents.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(CashPlaces))
}

// CashUp rounds d up to whole cents. Charges to a customer use it.
func CashUp(d decimal.Decimal) decimal.Decimal {
	return d.RoundCeil(CashPlaces)
}

// CashDown rounds d down to whole cents. Payouts to a customer use it.
func CashDown(d decimal.Decimal) decimal.Decimal {
	return d.RoundFloor(CashPlaces)
}

// Quantity rounds d to the precision kept for holdings.
func Quantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}
