// Package marketdata keeps a best-effort view of market prices. Prices are
// polled in the background and never block settlement; a missing or stale quote
// degrades valuation only.
package marketdata

import (
	"fmt"
	"strings"
	"time"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

// Quote is the latest price of an instrument and its percent change.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Change    decimal.Decimal `json:"change"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Feed answers price lookups.
type Feed interface {
	Quote(symbol string) (Quote, error)
}

// MultiFeed asks each feed in turn and returns the first quote found.
type MultiFeed []Feed

// Quote implements Feed.
func (m MultiFeed) Quote(symbol string) (Quote, error) {
	for _, f := range m {
		if q, err := f.Quote(symbol); err == nil {
			return q, nil
		}
	}
	return Quote{}, fmt.Errorf("%w: no quote for %s", model.ErrUpstreamUnavailable, symbol)
}

// NormalizeSymbol upper-cases and trims a ticker or coin symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
