// Package portfolio manages investment positions and the crypto wallet. Holdings
// carry a weighted-average cost; all cash settles with the treasury through the
// engine.
package portfolio

import (
	"context"
	"fmt"

	"go-bank-ledger/auth"
	"go-bank-ledger/engine"
	"go-bank-ledger/marketdata"
	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Manager executes trades for investments and crypto.
type Manager struct {
	engine *engine.Engine
	feed   marketdata.Feed
	rates  *marketdata.RateTable
	log    logrus.FieldLogger
}

// NewManager creates a Manager. Every trade is priced against the feed, so with
// a nil feed buys and sells fail with ErrUpstreamUnavailable. A nil rates
// table reports in EUR.
func NewManager(e *engine.Engine, feed marketdata.Feed, rates *marketdata.RateTable, log logrus.FieldLogger) *Manager {
	if rates == nil {
		rates, _ = marketdata.NewRateTable(model.EUR, marketdata.DefaultRates)
	}
	return &Manager{engine: e, feed: feed, rates: rates, log: log}
}

// buyCost returns the rounded quantity and what it costs in cents. The cost
// is rounded up.
func buyCost(quantity, price decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	return tradeValue(quantity, price, model.CashUp)
}

// saleProceeds returns what selling quantity pays out in cents, rounded down.
func saleProceeds(quantity, price decimal.Decimal) (decimal.Decimal, error) {
	_, proceeds, err := tradeValue(quantity, price, model.CashDown)
	return proceeds, err
}

func tradeValue(quantity, price decimal.Decimal, round func(decimal.Decimal) decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	qty := model.Quantity(quantity)
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: quantity %s", model.ErrInvalidAmount, quantity)
	}
	if !price.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: unit price %s", model.ErrInvalidAmount, price)
	}
	value := round(qty.Mul(price))
	if !value.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: trade value rounds to zero", model.ErrInvalidAmount)
	}
	return qty, value, nil
}

// sellQuantity resolves the requested quantity against what is held. Zero
// means everything.
func sellQuantity(requested, held decimal.Decimal) (decimal.Decimal, error) {
	if requested.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: quantity %s", model.ErrInvalidAmount, requested)
	}
	if requested.IsZero() {
		return held, nil
	}
	qty := model.Quantity(requested)
	if qty.GreaterThan(held) {
		return decimal.Zero, fmt.Errorf("%w: holding %s, selling %s", model.ErrInsufficientHolding, held, qty)
	}
	if !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: quantity %s", model.ErrInvalidAmount, requested)
	}
	return qty, nil
}

// price returns the latest quote for symbol.
func (m *Manager) price(symbol string) (decimal.Decimal, error) {
	if m.feed == nil {
		return decimal.Zero, fmt.Errorf("%w: no market data for %s", model.ErrUpstreamUnavailable, symbol)
	}
	q, err := m.feed.Quote(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !q.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no usable quote for %s", model.ErrUpstreamUnavailable, symbol)
	}
	return q.Price, nil
}

// buyPrice checks the caller's unit price against the latest quote. A price
// below the quote is refused; zero buys at the quote.
func (m *Manager) buyPrice(symbol string, requested decimal.Decimal) (decimal.Decimal, error) {
	if requested.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: unit price %s", model.ErrInvalidAmount, requested)
	}
	quote, err := m.price(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if requested.IsZero() {
		return quote, nil
	}
	if requested.LessThan(quote) {
		return decimal.Zero, fmt.Errorf("%w: %s trades at %s, above the offered %s", model.ErrInvalidInput, symbol, quote, requested)
	}
	return requested, nil
}

// pay settles cost from the owner's account into the treasury.
func (m *Manager) pay(ctx context.Context, tx storage.Tx, owner auth.Identity, req model.BuyRequest, cost decimal.Decimal, description string) (*model.Settlement, error) {
	acc, err := tx.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(owner, acc); err != nil {
		return nil, err
	}
	treasury, err := m.engine.TreasuryAccount(ctx, tx)
	if err != nil {
		return nil, err
	}
	return m.engine.Settle(ctx, tx, model.SettleRequest{
		PayerAccountID: acc.ID,
		PayeeAccountID: treasury.AccountID,
		Amount:         cost,
		Description:    description,
		Type:           model.TxPayment,
	})
}

// payout settles proceeds from the treasury into the owner's account.
func (m *Manager) payout(ctx context.Context, tx storage.Tx, owner auth.Identity, req model.SellRequest, proceeds decimal.Decimal, description string) (*model.Settlement, error) {
	acc, err := tx.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(owner, acc); err != nil {
		return nil, err
	}
	treasury, err := m.engine.TreasuryAccount(ctx, tx)
	if err != nil {
		return nil, err
	}
	return m.engine.Settle(ctx, tx, model.SettleRequest{
		PayerAccountID: treasury.AccountID,
		PayeeAccountID: acc.ID,
		Amount:         proceeds,
		Description:    description,
		Type:           model.TxDeposit,
	})
}
