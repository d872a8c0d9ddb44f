package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType is the product a loan was requested for.
type LoanType string

const (
	PersonalLoan LoanType = "personal"
	Mortgage     LoanType = "mortgage"
)

// Valid reports whether t is a known loan type.
func (t LoanType) Valid() bool {
	return t == PersonalLoan || t == Mortgage
}

// LoanStatus is a state of the loan lifecycle.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanActive    LoanStatus = "active"
	LoanPaid      LoanStatus = "paid"
	LoanDefaulted LoanStatus = "defaulted"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending: {LoanActive, LoanDefaulted},
	LoanActive:  {LoanActive, LoanPaid, LoanDefaulted},
}

// CanTransition reports whether a loan in status s may move to next.
// Paid and defaulted loans are terminal.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Loan is a borrower's loan. AccountID is the account that received the
// disbursement.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	BorrowerID       uuid.UUID       `json:"borrower_id"`
	AccountID        uuid.UUID       `json:"account_id"`
	Type             LoanType        `json:"loan_type"`
	Amount           decimal.Decimal `json:"amount"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	TermMonths       int             `json:"term_months"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Status           LoanStatus      `json:"status"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// LoanRequest defines the expected JSON body for requesting a loan.
type LoanRequest struct {
	AccountID    uuid.UUID       `json:"account_id"`
	Type         LoanType        `json:"loan_type"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
}

// InstallmentRequest defines the JSON body for paying a loan installment.
type InstallmentRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

// LoanFilter narrows a loan listing. Zero fields match everything.
type LoanFilter struct {
	BorrowerID uuid.UUID
	Status     LoanStatus
}
