package portfolio

import (
	"context"
	"fmt"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position kinds reported in a Summary.
const (
	KindInvestment = "investment"
	KindCrypto     = "crypto"
)

// Position is one valued holding.
type Position struct {
	Kind          string          `json:"kind"`
	ID            uuid.UUID       `json:"id"`
	Instrument    string          `json:"instrument"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	MarketPrice   decimal.Decimal `json:"market_price"`
	Priced        bool            `json:"priced"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	ProfitLossPct decimal.Decimal `json:"profit_loss_percent"`
}

// Summary values everything an owner holds in one reporting currency. It is
// computed on read and never stored.
type Summary struct {
	Currency   model.Currency  `json:"currency"`
	Cash       decimal.Decimal `json:"cash"`
	Positions  []Position      `json:"positions"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	TotalValue decimal.Decimal `json:"total_value"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	NetWorth   decimal.Decimal `json:"net_worth"`
}

// marketPrice returns the latest quote for symbol, or fallback when there is none.
func (m *Manager) marketPrice(symbol string, fallback decimal.Decimal) (decimal.Decimal, bool) {
	if m.feed == nil {
		return fallback, false
	}
	q, err := m.feed.Quote(symbol)
	if err != nil {
		return fallback, false
	}
	return q.Price, true
}

func valuePosition(p Position) Position {
	p.CostBasis = model.Cash(p.Quantity.Mul(p.AveragePrice))
	p.CurrentValue = model.Cash(p.Quantity.Mul(p.MarketPrice))
	p.ProfitLoss = p.CurrentValue.Sub(p.CostBasis)
	if p.CostBasis.IsPositive() {
		p.ProfitLossPct = p.ProfitLoss.Div(p.CostBasis).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return p
}

// Summary values the owner's accounts and holdings in the rate table's base
// currency. Holdings are priced in the treasury currency.
func (m *Manager) Summary(ctx context.Context, owner auth.Identity) (*Summary, error) {
	store := m.engine.Store()
	treasury, err := m.engine.TreasuryAccount(ctx, store)
	if err != nil {
		return nil, err
	}
	accounts, err := store.ListAccounts(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list accounts: %w", err)
	}
	investments, err := store.ListInvestments(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list investments: %w", err)
	}
	wallet, err := store.ListCryptoHoldings(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list crypto holdings: %w", err)
	}

	base := m.rates.Base()
	sum := &Summary{Currency: base, Positions: []Position{}}

	for _, acc := range accounts {
		v, err := m.rates.Convert(acc.Balance, acc.Currency, base)
		if err != nil {
			return nil, err
		}
		sum.Cash = sum.Cash.Add(v)
	}

	for _, inv := range investments {
		price, ok := m.marketPrice(inv.Name, inv.AveragePrice)
		sum.Positions = append(sum.Positions, valuePosition(Position{
			Kind:         KindInvestment,
			ID:           inv.ID,
			Instrument:   inv.Name,
			Name:         inv.Name,
			Quantity:     inv.Quantity,
			AveragePrice: inv.AveragePrice,
			MarketPrice:  price,
			Priced:       ok,
		}))
	}
	for _, h := range wallet {
		price, ok := m.marketPrice(h.Symbol, h.AveragePrice)
		sum.Positions = append(sum.Positions, valuePosition(Position{
			Kind:         KindCrypto,
			ID:           h.ID,
			Instrument:   h.Symbol,
			Name:         h.Name,
			Quantity:     h.Amount,
			AveragePrice: h.AveragePrice,
			MarketPrice:  price,
			Priced:       ok,
		}))
	}

	for _, p := range sum.Positions {
		cost, err := m.rates.Convert(p.CostBasis, treasury.Currency, base)
		if err != nil {
			return nil, err
		}
		value, err := m.rates.Convert(p.CurrentValue, treasury.Currency, base)
		if err != nil {
			return nil, err
		}
		sum.TotalCost = sum.TotalCost.Add(cost)
		sum.TotalValue = sum.TotalValue.Add(value)
	}
	sum.Cash = model.Cash(sum.Cash)
	sum.TotalCost = model.Cash(sum.TotalCost)
	sum.TotalValue = model.Cash(sum.TotalValue)
	sum.ProfitLoss = sum.TotalValue.Sub(sum.TotalCost)
	sum.NetWorth = sum.Cash.Add(sum.TotalValue)
	return sum, nil
}
