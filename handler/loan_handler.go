package handler

import (
	"context"
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LoanHandler serves the loan lifecycle.
type LoanHandler struct {
	loans Loans
	log   logrus.FieldLogger
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loans Loans, log logrus.FieldLogger) *LoanHandler {
	return &LoanHandler{loans: loans, log: log}
}

// RequestLoanHandler files a pending loan against one of the caller's accounts.
//
// Method: POST
// Path: /loans
// Success: 201 Created
// Error: 400 Bad Request, 403 Forbidden, 404 Not Found
func (h *LoanHandler) RequestLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "loan_request", err)
		return
	}
	var req model.LoanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "loan_request", err)
		return
	}
	l, err := h.loans.RequestLoan(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, "loan_request", err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// ListLoansHandler returns the caller's loans.
//
// Method: GET
// Path: /loans
func (h *LoanHandler) ListLoansHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "loan_list", h.loans.ListByBorrower)
}

// ListPendingHandler returns the approval queue. Workers only.
//
// Method: GET
// Path: /loans/pending
func (h *LoanHandler) ListPendingHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "loan_pending", h.loans.ListPending)
}

func (h *LoanHandler) list(w http.ResponseWriter, r *http.Request, op string,
	fetch func(context.Context, auth.Identity) ([]model.Loan, error)) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, op, err)
		return
	}
	loans, err := fetch(r.Context(), id)
	if err != nil {
		writeError(w, h.log, op, err)
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

// ApproveHandler disburses a pending loan. Workers only.
//
// Method: POST
// Path: /loans/{loan_id}/approve
// Success: 200 OK
// Error: 404 Not Found, 409 Conflict (not pending), 422 (treasury short)
func (h *LoanHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "loan_approve", h.loans.Approve)
}

// RejectHandler declines a pending loan. Workers only.
//
// Method: POST
// Path: /loans/{loan_id}/reject
func (h *LoanHandler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "loan_reject", h.loans.Reject)
}

// DefaultHandler marks an active loan as defaulted. Workers only.
//
// Method: POST
// Path: /loans/{loan_id}/default
func (h *LoanHandler) DefaultHandler(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "loan_default", h.loans.MarkDefaulted)
}

func (h *LoanHandler) decide(w http.ResponseWriter, r *http.Request, op string,
	apply func(context.Context, uuid.UUID, auth.Identity) (*model.Loan, error)) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, op, err)
		return
	}
	loanID, err := pathID(r, "loan_id")
	if err != nil {
		writeError(w, h.log, op, err)
		return
	}
	l, err := apply(r.Context(), loanID, id)
	if err != nil {
		writeError(w, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// PayInstallmentHandler pays the next installment from the given account.
//
// Method: POST
// Path: /loans/{loan_id}/installments
// Success: 201 Created
// Error: 403 Forbidden, 404 Not Found, 409 Conflict (not active), 422 (insufficient funds)
func (h *LoanHandler) PayInstallmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "loan_installment", err)
		return
	}
	loanID, err := pathID(r, "loan_id")
	if err != nil {
		writeError(w, h.log, "loan_installment", err)
		return
	}
	var req model.InstallmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "loan_installment", err)
		return
	}
	result, err := h.loans.PayInstallment(r.Context(), loanID, req.AccountID, id)
	if err != nil {
		writeError(w, h.log, "loan_installment", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
