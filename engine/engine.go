// Package engine is the only code path that changes account balances. Every
// operation runs as one store transaction that locks the accounts it touches and
// writes a balanced pair of ledger entries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultMaxRetries bounds how often a conflicting transaction is replayed.
const DefaultMaxRetries = 5

// Engine executes money movements against a Store.
type Engine struct {
	store      storage.Store
	log        logrus.FieldLogger
	now        func() time.Time
	maxRetries uint64
	newNumber  func() (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for retry and settlement events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxRetries sets how many times a PersistenceConflict is retried.
func WithMaxRetries(n uint64) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithAccountNumbers overrides the account number generator.
func WithAccountNumbers(gen func() (string, error)) Option {
	return func(e *Engine) { e.newNumber = gen }
}

// New creates an Engine.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		log:        logrus.StandardLogger(),
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: DefaultMaxRetries,
		newNumber:  NewAccountNumber,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the underlying store for read-only queries.
func (e *Engine) Store() storage.Reader {
	return e.store
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Run executes fn in a single store transaction. A PersistenceConflict is
// retried with exponential backoff; every other error is returned at once.
// fn may run more than once and must not keep state between attempts.
func (e *Engine) Run(ctx context.Context, op string, fn func(storage.Tx) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := e.store.ExecTx(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, model.ErrPersistenceConflict) {
			e.log.WithFields(logrus.Fields{"op": op, "attempt": attempt}).WithError(err).Warn("transaction conflict, retrying")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, e.maxRetries), ctx))
}

// checkAmount accepts positive amounts in whole cents.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", model.ErrInvalidAmount, amount)
	}
	if !model.IsCents(amount) {
		return fmt.Errorf("%w: %s has more than %d decimal places", model.ErrInvalidAmount, amount, model.CashPlaces)
	}
	return nil
}

// Settle moves req.Amount from payer to payee inside tx. It is the building
// block of every other operation and is exported so the loan and portfolio
// managers can combine a settlement with their own writes in one transaction.
func (e *Engine) Settle(ctx context.Context, tx storage.Tx, req model.SettleRequest) (*model.Settlement, error) {
	amount := req.Amount
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if req.PayerAccountID == req.PayeeAccountID {
		return nil, model.ErrSameAccount
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: transaction type %q", model.ErrInvalidInput, req.Type)
	}

	locked, err := tx.LockAccounts(ctx, req.PayerAccountID, req.PayeeAccountID)
	if err != nil {
		return nil, err
	}
	payer, payee := locked[req.PayerAccountID], locked[req.PayeeAccountID]

	if payer.Currency != payee.Currency {
		return nil, fmt.Errorf("%w: %s to %s", model.ErrCurrencyMismatch, payer.Currency, payee.Currency)
	}
	if payer.Balance.LessThan(amount) {
		if e.isTreasury(ctx, tx, payer.ID) {
			return nil, fmt.Errorf("%w: treasury holds %s, needs %s", model.ErrInsufficientTreasuryFunds, payer.Balance, amount)
		}
		return nil, fmt.Errorf("%w: account %s holds %s, needs %s", model.ErrInsufficientFunds, payer.Number, payer.Balance, amount)
	}

	payer.Balance = payer.Balance.Sub(amount)
	payee.Balance = payee.Balance.Add(amount)
	if err := tx.UpdateBalance(ctx, payer.ID, payer.Balance); err != nil {
		return nil, fmt.Errorf("could not debit payer: %w", err)
	}
	if err := tx.UpdateBalance(ctx, payee.ID, payee.Balance); err != nil {
		return nil, fmt.Errorf("could not credit payee: %w", err)
	}

	now := e.now()
	correlation := uuid.New()
	payerNumber, payeeNumber := payer.Number, payee.Number
	debit := model.Transaction{
		ID:            uuid.New(),
		AccountID:     payer.ID,
		Type:          req.Type,
		Amount:        amount.Neg(),
		Currency:      payer.Currency,
		Description:   req.Description,
		Counterparty:  &payeeNumber,
		CorrelationID: correlation,
		CreatedAt:     now,
	}
	credit := model.Transaction{
		ID:            uuid.New(),
		AccountID:     payee.ID,
		Type:          req.Type,
		Amount:        amount,
		Currency:      payee.Currency,
		Description:   req.Description,
		Counterparty:  &payerNumber,
		CorrelationID: correlation,
		CreatedAt:     now,
	}
	if err := tx.AppendTransactions(ctx, &debit, &credit); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"correlation_id": correlation,
		"type":           req.Type,
		"payer":          payer.ID,
		"payee":          payee.ID,
		"amount":         amount.StringFixed(model.CashPlaces),
	}).Debug("settled")

	return &model.Settlement{
		CorrelationID: correlation,
		Payer:         *payer,
		Payee:         *payee,
		Debit:         debit,
		Credit:        credit,
	}, nil
}

// SettleTrade runs Settle in its own transaction.
func (e *Engine) SettleTrade(ctx context.Context, req model.SettleRequest) (*model.Settlement, error) {
	var result *model.Settlement
	err := e.Run(ctx, "settle", func(tx storage.Tx) error {
		s, err := e.Settle(ctx, tx, req)
		if err != nil {
			return err
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TreasuryAccount resolves the treasury singleton through r.
func (e *Engine) TreasuryAccount(ctx context.Context, r storage.Reader) (*model.Treasury, error) {
	t, err := r.Treasury(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not resolve treasury: %w", err)
	}
	return t, nil
}

func (e *Engine) isTreasury(ctx context.Context, tx storage.Reader, id uuid.UUID) bool {
	t, err := tx.Treasury(ctx)
	return err == nil && t.AccountID == id
}
