package marketdata

import (
	"fmt"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

// RateTable converts between currencies for display and aggregation. It never
// feeds a stored balance.
type RateTable struct {
	base  model.Currency
	rates map[model.Currency]decimal.Decimal // value of one unit in base
}

// DefaultRates is used when no rates are configured.
var DefaultRates = map[model.Currency]decimal.Decimal{
	model.EUR: decimal.NewFromInt(1),
	model.GBP: decimal.RequireFromString("1.17"),
	model.USD: decimal.RequireFromString("0.92"),
}

// NewRateTable builds a table around base. The base currency's own rate is
// forced to one.
func NewRateTable(base model.Currency, rates map[model.Currency]decimal.Decimal) (*RateTable, error) {
	if !base.Valid() {
		return nil, fmt.Errorf("%w: base currency %q", model.ErrInvalidInput, base)
	}
	t := &RateTable{base: base, rates: map[model.Currency]decimal.Decimal{base: decimal.NewFromInt(1)}}
	for c, r := range rates {
		if !c.Valid() || !r.IsPositive() {
			return nil, fmt.Errorf("%w: rate %s=%s", model.ErrInvalidInput, c, r)
		}
		if c != base {
			t.rates[c] = r
		}
	}
	return t, nil
}

// Base returns the reporting currency.
func (t *RateTable) Base() model.Currency {
	return t.base
}

// Convert expresses amount in from as an amount in to, rounded to cents.
func (t *RateTable) Convert(amount decimal.Decimal, from, to model.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fr, ok := t.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", model.ErrInvalidInput, from)
	}
	tr, ok := t.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", model.ErrInvalidInput, to)
	}
	return model.Cash(amount.Mul(fr).Div(tr)), nil
}
