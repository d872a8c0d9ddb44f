package engine

import (
	"context"
	"fmt"

	"go-bank-ledger/model"

	"github.com/google/uuid"
)

// Transaction history limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Account returns a single account.
func (e *Engine) Account(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return e.store.GetAccount(ctx, id)
}

// Accounts returns the accounts of an owner.
func (e *Engine) Accounts(ctx context.Context, owner uuid.UUID) ([]model.Account, error) {
	accounts, err := e.store.ListAccounts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("could not list accounts: %w", err)
	}
	return accounts, nil
}

// History returns the newest ledger entries of an account. limit is clamped to
// [1, MaxHistoryLimit]; zero means DefaultHistoryLimit.
func (e *Engine) History(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	txs, err := e.store.ListTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list transactions: %w", err)
	}
	return txs, nil
}

// Stats summarises the ledger for workers.
func (e *Engine) Stats(ctx context.Context) (*model.Stats, error) {
	st, err := e.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not compute stats: %w", err)
	}
	return st, nil
}
