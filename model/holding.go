package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentType is the instrument class of an investment.
type InvestmentType string

const (
	Stocks InvestmentType = "stocks"
	Funds  InvestmentType = "funds"
)

// Valid reports whether t is a known investment type.
func (t InvestmentType) Valid() bool {
	return t == Stocks || t == Funds
}

// Investment is a position in a stock or fund. One row per owner and instrument.
type Investment struct {
	ID             uuid.UUID        `json:"id"`
	OwnerID        uuid.UUID        `json:"owner_id"`
	Type           InvestmentType   `json:"investment_type"`
	Name           string           `json:"name"`
	Quantity       decimal.Decimal  `json:"quantity"`
	AveragePrice   decimal.Decimal  `json:"average_price"`
	AmountInvested decimal.Decimal  `json:"amount_invested"`
	CurrentValue   decimal.Decimal  `json:"current_value"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty"`
	PurchasedAt    time.Time        `json:"purchase_date"`
}

// CryptoHolding is a wallet entry for one symbol.
type CryptoHolding struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	AveragePrice decimal.Decimal `json:"average_buy_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BuyRequest defines the JSON body for buying an investment or crypto. A
// UnitPrice below the market quote is refused; a zero UnitPrice buys at the
// quote.
type BuyRequest struct {
	AccountID    uuid.UUID        `json:"account_id"`
	Type         InvestmentType   `json:"investment_type,omitempty"`
	Instrument   string           `json:"instrument"`
	Name         string           `json:"name,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price,omitempty"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
}

// SellRequest defines the JSON body for selling at the latest market quote. A
// zero Quantity sells the whole holding.
type SellRequest struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Instrument string          `json:"instrument,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// TradeResult reports a completed buy or sell. Holding is nil after a full sell.
type TradeResult struct {
	Settlement Settlement      `json:"settlement"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Cash       decimal.Decimal `json:"cash"`
	Investment *Investment     `json:"investment,omitempty"`
	Crypto     *CryptoHolding  `json:"crypto,omitempty"`
}

// WeightedAverage merges addQty units bought at price into a position of oldQty
// units at oldAvg.
func WeightedAverage(oldQty, oldAvg, addQty, price decimal.Decimal) decimal.Decimal {
	total := oldQty.Add(addQty)
	if total.IsZero() {
		return decimal.Zero
	}
	return oldQty.Mul(oldAvg).Add(addQty.Mul(price)).Div(total).Round(QuantityPlaces)
}
