package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType distinguishes checking from savings accounts.
type AccountType string

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == Checking || t == Savings
}

// Account represents a bank account. Balance is only ever written by the engine.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"account_number"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Currency  Currency        `json:"currency"`
	Type      AccountType     `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Treasury is the institution's own liquidity account. There is exactly one.
type Treasury struct {
	AccountID     uuid.UUID `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	Currency      Currency  `json:"currency"`
}

// CreateAccountRequest defines the expected JSON body for opening an account.
type CreateAccountRequest struct {
	Currency Currency    `json:"currency"`
	Type     AccountType `json:"account_type"`
}

// Stats summarises the ledger for the worker panel.
type Stats struct {
	Accounts       int64           `json:"accounts"`
	Cards          int64           `json:"cards"`
	Loans          int64           `json:"loans"`
	PendingLoans   int64           `json:"pending_loans"`
	Investments    int64           `json:"investments"`
	CryptoHoldings int64           `json:"crypto_holdings"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
}
