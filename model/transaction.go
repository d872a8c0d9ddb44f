package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxTransfer   TransactionType = "transfer"
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxPayment    TransactionType = "payment"
	TxSalary     TransactionType = "salary"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxTransfer, TxDeposit, TxWithdrawal, TxPayment, TxSalary:
		return true
	}
	return false
}

// Transaction is one leg of a balance-affecting event. Amount is signed:
// positive credits the account, negative debits it. Entries are never updated.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Type          TransactionType `json:"transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	Description   string          `json:"description"`
	Counterparty  *string         `json:"recipient_account,omitempty"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Suspicious    bool            `json:"is_suspicious"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferRequest defines the expected JSON body for a transfer.
type TransferRequest struct {
	FromAccountID   uuid.UUID       `json:"from_account_id"`
	ToAccountNumber string          `json:"to_account_number"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
}

// TransferResult carries both updated balances of a completed transfer.
type TransferResult struct {
	CorrelationID uuid.UUID       `json:"correlation_id"`
	From          Account         `json:"from"`
	To            Account         `json:"to"`
	Debit         Transaction     `json:"debit"`
	Credit        Transaction     `json:"credit"`
	Amount        decimal.Decimal `json:"amount"`
}

// CashRequest defines the JSON body for deposits and withdrawals.
type CashRequest struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// SettleRequest moves Amount from Payer to Payee as one two-legged event.
type SettleRequest struct {
	PayerAccountID uuid.UUID
	PayeeAccountID uuid.UUID
	Amount         decimal.Decimal
	Description    string
	Type           TransactionType
}

// Settlement is the outcome of a SettleRequest.
type Settlement struct {
	CorrelationID uuid.UUID   `json:"correlation_id"`
	Payer         Account     `json:"payer"`
	Payee         Account     `json:"payee"`
	Debit         Transaction `json:"debit"`
	Credit        Transaction `json:"credit"`
}
