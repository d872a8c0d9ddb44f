// Package loan manages the loan lifecycle: request, worker approval with
// disbursement, installments, rejection and default.
package loan

import (
	"context"
	"fmt"

	"go-bank-ledger/auth"
	"go-bank-ledger/engine"
	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Manager owns every loan state change. Cash moves only through the engine.
type Manager struct {
	engine *engine.Engine
	log    logrus.FieldLogger
}

// NewManager creates a Manager.
func NewManager(e *engine.Engine, log logrus.FieldLogger) *Manager {
	return &Manager{engine: e, log: log}
}

// InstallmentResult is the loan after a payment together with its settlement.
type InstallmentResult struct {
	Loan       model.Loan       `json:"loan"`
	Settlement model.Settlement `json:"settlement"`
	Paid       decimal.Decimal  `json:"paid"`
}

// RequestLoan records a pending loan. No money moves until a worker approves it.
func (m *Manager) RequestLoan(ctx context.Context, borrower auth.Identity, req model.LoanRequest) (*model.Loan, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: loan type %q", model.ErrInvalidInput, req.Type)
	}
	if !model.IsCents(req.Amount) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", model.ErrInvalidAmount, req.Amount, model.CashPlaces)
	}
	amount := req.Amount
	payment, err := MonthlyPayment(amount, req.InterestRate, req.TermMonths)
	if err != nil {
		return nil, err
	}

	store := m.engine.Store()
	acc, err := store.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckOwner(borrower, acc); err != nil {
		return nil, err
	}
	treasury, err := m.engine.TreasuryAccount(ctx, store)
	if err != nil {
		return nil, err
	}
	if treasury.Currency != acc.Currency {
		return nil, fmt.Errorf("%w: loans are issued in %s", model.ErrCurrencyMismatch, treasury.Currency)
	}

	l := &model.Loan{
		ID:               uuid.New(),
		BorrowerID:       borrower.OwnerID,
		AccountID:        acc.ID,
		Type:             req.Type,
		Amount:           amount,
		InterestRate:     req.InterestRate,
		TermMonths:       req.TermMonths,
		MonthlyPayment:   payment,
		RemainingBalance: amount,
		Status:           model.LoanPending,
		CreatedAt:        m.engine.Now(),
	}
	err = m.engine.Run(ctx, "loan_request", func(tx storage.Tx) error {
		return tx.CreateLoan(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"loan_id": l.ID, "borrower_id": l.BorrowerID}).Info("loan requested")
	return l, nil
}

// Approve disburses a pending loan from the treasury and activates it.
func (m *Manager) Approve(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error) {
	if !approver.IsWorker() {
		return nil, fmt.Errorf("%w: only workers approve loans", model.ErrForbidden)
	}

	var result *model.Loan
	err := m.engine.Run(ctx, "loan_approve", func(tx storage.Tx) error {
		l, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Status != model.LoanPending {
			return fmt.Errorf("%w: cannot approve %s loan", model.ErrInvalidState, l.Status)
		}
		treasury, err := m.engine.TreasuryAccount(ctx, tx)
		if err != nil {
			return err
		}

		_, err = m.engine.Settle(ctx, tx, model.SettleRequest{
			PayerAccountID: treasury.AccountID,
			PayeeAccountID: l.AccountID,
			Amount:         l.Amount,
			Description:    fmt.Sprintf("Loan %s disbursement", l.ID),
			Type:           model.TxDeposit,
		})
		if err != nil {
			return err
		}

		now := m.engine.Now()
		approvedBy := approver.OwnerID
		l.Status = model.LoanActive
		l.ApprovedBy = &approvedBy
		l.ApprovedAt = &now
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}
		result = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"loan_id": loanID, "approved_by": approver.OwnerID}).Info("loan approved")
	return result, nil
}

// Reject declines a pending loan. Nothing was disbursed, so no money moves. A
// rejected loan is recorded as defaulted.
func (m *Manager) Reject(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error) {
	return m.close(ctx, "loan_reject", loanID, approver, model.LoanPending)
}

// MarkDefaulted closes an active loan that will not be repaid.
func (m *Manager) MarkDefaulted(ctx context.Context, loanID uuid.UUID, approver auth.Identity) (*model.Loan, error) {
	return m.close(ctx, "loan_default", loanID, approver, model.LoanActive)
}

func (m *Manager) close(ctx context.Context, op string, loanID uuid.UUID, approver auth.Identity, from model.LoanStatus) (*model.Loan, error) {
	if !approver.IsWorker() {
		return nil, fmt.Errorf("%w: only workers close loans", model.ErrForbidden)
	}

	var result *model.Loan
	err := m.engine.Run(ctx, op, func(tx storage.Tx) error {
		l, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if l.Status != from || !l.Status.CanTransition(model.LoanDefaulted) {
			return fmt.Errorf("%w: cannot close %s loan", model.ErrInvalidState, l.Status)
		}
		l.Status = model.LoanDefaulted
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}
		result = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"op": op, "loan_id": loanID, "from": from}).Info("loan closed")
	return result, nil
}

// PayInstallment pays exactly one monthly installment from payingAccountID
// into the treasury. The remaining balance is floored at zero, so the last
// installment may exceed what is left.
func (m *Manager) PayInstallment(ctx context.Context, loanID, payingAccountID uuid.UUID, payer auth.Identity) (*InstallmentResult, error) {
	var result *InstallmentResult
	err := m.engine.Run(ctx, "loan_installment", func(tx storage.Tx) error {
		l, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if l.BorrowerID != payer.OwnerID {
			return fmt.Errorf("%w: loan belongs to another borrower", model.ErrForbidden)
		}
		if l.Status != model.LoanActive {
			return fmt.Errorf("%w: cannot pay %s loan", model.ErrInvalidState, l.Status)
		}
		acc, err := tx.GetAccount(ctx, payingAccountID)
		if err != nil {
			return err
		}
		if err := auth.CheckOwner(payer, acc); err != nil {
			return err
		}
		treasury, err := m.engine.TreasuryAccount(ctx, tx)
		if err != nil {
			return err
		}

		installment := l.MonthlyPayment
		s, err := m.engine.Settle(ctx, tx, model.SettleRequest{
			PayerAccountID: acc.ID,
			PayeeAccountID: treasury.AccountID,
			Amount:         installment,
			Description:    fmt.Sprintf("Loan %s installment", l.ID),
			Type:           model.TxPayment,
		})
		if err != nil {
			return err
		}

		l.RemainingBalance = decimal.Max(l.RemainingBalance.Sub(installment), decimal.Zero)
		if l.TermMonths > 0 {
			l.TermMonths--
		}
		if l.RemainingBalance.IsZero() {
			l.Status = model.LoanPaid
		}
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}
		result = &InstallmentResult{Loan: *l, Settlement: *s, Paid: installment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"loan_id":   loanID,
		"remaining": result.Loan.RemainingBalance.StringFixed(model.CashPlaces),
		"status":    result.Loan.Status,
	}).Info("installment paid")
	return result, nil
}

// Get returns a loan visible to the caller: its borrower or any worker.
func (m *Manager) Get(ctx context.Context, loanID uuid.UUID, caller auth.Identity) (*model.Loan, error) {
	l, err := m.engine.Store().GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.BorrowerID != caller.OwnerID && !caller.IsWorker() {
		return nil, model.ErrLoanNotFound
	}
	return l, nil
}

// ListByBorrower returns the caller's loans, newest first.
func (m *Manager) ListByBorrower(ctx context.Context, borrower auth.Identity) ([]model.Loan, error) {
	return m.engine.Store().ListLoans(ctx, model.LoanFilter{BorrowerID: borrower.OwnerID})
}

// ListPending returns the approval queue for workers.
func (m *Manager) ListPending(ctx context.Context, worker auth.Identity) ([]model.Loan, error) {
	if !worker.IsWorker() {
		return nil, fmt.Errorf("%w: only workers review loans", model.ErrForbidden)
	}
	return m.engine.Store().ListLoans(ctx, model.LoanFilter{Status: model.LoanPending})
}
