// Package handler exposes the ledger over HTTP. Handlers decode the request,
// check the caller's identity and delegate to the engine and managers.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/loan"
	"go-bank-ledger/model"
	"go-bank-ledger/portfolio"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Ledger is the part of the engine the handlers use.
type Ledger interface {
	OpenAccount(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error)
	Account(ctx context.Context, id uuid.UUID) (*model.Account, error)
	Accounts(ctx context.Context, owner uuid.UUID) ([]model.Account, error)
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error)
	Transfer(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error)
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Loans is implemented by loan.Manager.
type Loans interface {
	RequestLoan(ctx context.Context, borrower auth.Identity, req model.LoanRequest) (*model.Loan, error)
	Approve(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error)
	Reject(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error)
	MarkDefaulted(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error)
	PayInstallment(ctx context.Context, loanID, payingAccountID uuid.UUID, payer auth.Identity) (*loan.InstallmentResult, error)
	ListByBorrower(ctx context.Context, borrower auth.Identity) ([]model.Loan, error)
	ListPending(ctx context.Context, worker auth.Identity) ([]model.Loan, error)
}

// Portfolio is implemented by portfolio.Manager.
type Portfolio interface {
	BuyInvestment(ctx context.Context, owner auth.Identity, req model.BuyRequest) (*model.TradeResult, error)
	SellInvestment(ctx context.Context, owner auth.Identity, holdingID uuid.UUID, req model.SellRequest) (*model.TradeResult, error)
	BuyCrypto(ctx context.Context, owner auth.Identity, req model.BuyRequest) (*model.TradeResult, error)
	SellCrypto(ctx context.Context, owner auth.Identity, req model.SellRequest) (*model.TradeResult, error)
	Summary(ctx context.Context, owner auth.Identity) (*portfolio.Summary, error)
}

// Cards is implemented by card.Service.
type Cards interface {
	IssueCard(ctx context.Context, owner auth.Identity, req model.IssueCardRequest) (*model.Card, error)
	ListCards(ctx context.Context, owner auth.Identity) ([]model.Card, error)
	DeactivateCard(ctx context.Context, owner auth.Identity, cardID uuid.UUID) (*model.Card, error)
}

// pathID parses the UUID path variable name.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s is required", model.ErrInvalidInput, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s format", model.ErrInvalidInput, name)
	}
	return id, nil
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", model.ErrInvalidInput)
	}
	return nil
}

// identity returns the caller stored by auth.Middleware.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return id, nil
}

// canView allows owners to see their own accounts and workers to see any.
func canView(id auth.Identity, acc *model.Account) error {
	if id.IsWorker() {
		return nil
	}
	return auth.CheckOwner(id, acc)
}
