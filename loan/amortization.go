package loan

import (
	"fmt"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

// MaxTermMonths is the longest term a loan may run.
const MaxTermMonths = 600

var (
	one         = decimal.NewFromInt(1)
	monthlyBase = decimal.NewFromInt(1200) // percent per year -> fraction per month
)

// MonthlyPayment returns the constant annuity installment, rounded to cents:
//
//	P = principal × r × (1+r)^n / ((1+r)^n − 1)
//
// where r is annualRate/100/12 and n is months, at most MaxTermMonths. A zero
// rate spreads the principal evenly.
func MonthlyPayment(principal, annualRate decimal.Decimal, months int) (decimal.Decimal, error) {
	if !principal.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: principal %s", model.ErrInvalidAmount, principal)
	}
	if months <= 0 {
		return decimal.Zero, fmt.Errorf("%w: term must be at least one month", model.ErrInvalidInput)
	}
	if months > MaxTermMonths {
		return decimal.Zero, fmt.Errorf("%w: term of %d months exceeds %d", model.ErrInvalidInput, months, MaxTermMonths)
	}
	if annualRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative interest rate", model.ErrInvalidInput)
	}

	n := decimal.NewFromInt(int64(months))
	r := annualRate.Div(monthlyBase)
	if r.IsZero() {
		return model.Cash(principal.Div(n)), nil
	}

	growth := one.Add(r).Pow(n)
	payment := principal.Mul(r).Mul(growth).Div(growth.Sub(one))
	return model.Cash(payment), nil
}

// Installments returns how many payments of monthly clear remaining.
func Installments(remaining, monthly decimal.Decimal) int64 {
	if !monthly.IsPositive() || !remaining.IsPositive() {
		return 0
	}
	return remaining.Div(monthly).Ceil().IntPart()
}
