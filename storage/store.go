package storage

import (
	"context"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reader holds the read-only queries available both inside and outside a
// transaction.
type Reader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*model.Account, error)
	AccountNumberExists(ctx context.Context, number string) (bool, error)
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]model.Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error)
	Treasury(ctx context.Context) (*model.Treasury, error)

	GetLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)

	GetInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error)
	ListInvestments(ctx context.Context, ownerID uuid.UUID) ([]model.Investment, error)
	GetCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error)
	ListCryptoHoldings(ctx context.Context, ownerID uuid.UUID) ([]model.CryptoHolding, error)

	GetCard(ctx context.Context, id uuid.UUID) (*model.Card, error)
	ListCards(ctx context.Context, ownerID uuid.UUID) ([]model.Card, error)

	Stats(ctx context.Context) (*model.Stats, error)
}

// Tx is a unit of work. Lock* methods hold the returned rows until the
// transaction ends; every write made through a Tx commits or rolls back together.
type Tx interface {
	Reader

	CreateAccount(ctx context.Context, acc *model.Account) error
	// LockAccounts locks the given accounts in ascending id order and returns
	// them keyed by id. Missing accounts yield model.ErrAccountNotFound.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*model.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	AppendTransactions(ctx context.Context, txs ...*model.Transaction) error
	SetTreasury(ctx context.Context, t model.Treasury) error

	CreateLoan(ctx context.Context, loan *model.Loan) error
	LockLoan(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	UpdateLoan(ctx context.Context, loan *model.Loan) error

	LockInvestment(ctx context.Context, id uuid.UUID) (*model.Investment, error)
	LockInvestmentByName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Investment, error)
	SaveInvestment(ctx context.Context, inv *model.Investment) error
	DeleteInvestment(ctx context.Context, id uuid.UUID) error

	LockCryptoHolding(ctx context.Context, ownerID uuid.UUID, symbol string) (*model.CryptoHolding, error)
	SaveCryptoHolding(ctx context.Context, h *model.CryptoHolding) error
	DeleteCryptoHolding(ctx context.Context, id uuid.UUID) error

	CreateCard(ctx context.Context, card *model.Card) error
	UpdateCard(ctx context.Context, card *model.Card) error
}

// Store defines the ledger's persistence operations.
type Store interface {
	Reader
	// ExecTx runs fn in a transaction, committing if fn returns nil and rolling
	// back otherwise.
	ExecTx(ctx context.Context, fn func(Tx) error) error
	Close()
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Tx    = (*txQueries)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Tx    = (*memTx)(nil)
)
