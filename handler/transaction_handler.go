package handler

import (
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TransactionHandler holds dependencies for money-movement handlers.
type TransactionHandler struct {
	ledger Ledger
	log    logrus.FieldLogger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger Ledger, log logrus.FieldLogger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, log: log}
}

// ownAccount loads accountID and checks that the caller owns it.
func (h *TransactionHandler) ownAccount(r *http.Request, accountID uuid.UUID) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	acc, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		return err
	}
	return auth.CheckOwner(id, acc)
}

// TransferHandler moves money from one of the caller's accounts to any account
// by number. The transfer is applied atomically: both balances and both ledger
// entries, or nothing.
//
// Method: POST
// Path: /transfers
// Success: 201 Created
// Error: 400 Bad Request (invalid body, non-positive amount, same account, currency mismatch)
// Error: 403 Forbidden (source account not owned by caller)
// Error: 404 Not Found (either account missing)
// Error: 422 Unprocessable Entity (insufficient funds)
func (h *TransactionHandler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "transfer", err)
		return
	}
	if err := h.ownAccount(r, req.FromAccountID); err != nil {
		writeError(w, h.log, "transfer", err)
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req)
	if err != nil {
		writeError(w, h.log, "transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// DepositHandler takes cash in at the counter: a worker credits any account
// from the treasury. The router admits workers only.
//
// Method: POST
// Path: /deposits
// Success: 201 Created
// Error: 400, 403 (not a worker), 404, 422 (treasury short)
func (h *TransactionHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CashRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "deposit", err)
		return
	}
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "deposit", err)
		return
	}
	if !id.IsWorker() {
		writeError(w, h.log, "deposit", model.ErrForbidden)
		return
	}

	s, err := h.ledger.Deposit(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		writeError(w, h.log, "deposit", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// WithdrawHandler debits the caller's account into the treasury.
//
// Method: POST
// Path: /withdrawals
// Success: 201 Created
// Error: 400, 403, 404, 422 (insufficient funds)
func (h *TransactionHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	var req model.CashRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "withdraw", err)
		return
	}
	if err := h.ownAccount(r, req.AccountID); err != nil {
		writeError(w, h.log, "withdraw", err)
		return
	}

	s, err := h.ledger.Withdraw(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		writeError(w, h.log, "withdraw", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}
