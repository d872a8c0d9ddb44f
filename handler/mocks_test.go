package handler

import (
	"context"
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// MockLedger provides a mock implementation of Ledger for testing.
type MockLedger struct {
	OpenAccountFunc func(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error)
	AccountFunc     func(ctx context.Context, id uuid.UUID) (*model.Account, error)
	AccountsFunc    func(ctx context.Context, owner uuid.UUID) ([]model.Account, error)
	HistoryFunc     func(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error)
	TransferFunc    func(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error)
	DepositFunc     func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error)
	WithdrawFunc    func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error)
	StatsFunc       func(ctx context.Context) (*model.Stats, error)
}

func (m *MockLedger) OpenAccount(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error) {
	return m.OpenAccountFunc(ctx, owner, currency, typ)
}

func (m *MockLedger) Account(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return m.AccountFunc(ctx, id)
}

func (m *MockLedger) Accounts(ctx context.Context, owner uuid.UUID) ([]model.Account, error) {
	return m.AccountsFunc(ctx, owner)
}

func (m *MockLedger) History(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
	return m.HistoryFunc(ctx, accountID, limit)
}

func (m *MockLedger) Transfer(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error) {
	return m.TransferFunc(ctx, req)
}

func (m *MockLedger) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error) {
	return m.DepositFunc(ctx, accountID, amount, description)
}

func (m *MockLedger) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error) {
	return m.WithdrawFunc(ctx, accountID, amount, description)
}

func (m *MockLedger) Stats(ctx context.Context) (*model.Stats, error) {
	return m.StatsFunc(ctx)
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// asUser attaches an identity the way auth.Middleware does.
func asUser(r *http.Request, id auth.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func ownedAccount(owner uuid.UUID) *model.Account {
	return &model.Account{
		ID:       uuid.New(),
		Number:   "ES00000000000000000001",
		OwnerID:  owner,
		Currency: model.EUR,
		Type:     model.Checking,
		Balance:  decimal.NewFromInt(500),
	}
}
