package handler

import (
	"net/http"
	"strconv"

	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

// AccountHandler holds dependencies for account-related handlers.
type AccountHandler struct {
	ledger Ledger
	log    logrus.FieldLogger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger Ledger, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{ledger: ledger, log: log}
}

// CreateAccountHandler opens an empty account for the caller.
// It expects a JSON body with "currency" and "account_type".
//
// Method: POST
// Path: /accounts
// Success: 201 Created
// Error: 400 Bad Request (for invalid JSON, currency or type)
// Error: 500 Internal Server Error (for database errors)
func (h *AccountHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "create_account", err)
		return
	}
	var req model.CreateAccountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "create_account", err)
		return
	}
	if req.Type == "" {
		req.Type = model.Checking
	}

	acc, err := h.ledger.OpenAccount(r.Context(), id.OwnerID, req.Currency, req.Type)
	if err != nil {
		writeError(w, h.log, "create_account", err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

// ListAccountsHandler returns the caller's accounts.
//
// Method: GET
// Path: /accounts
// Success: 200 OK
func (h *AccountHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "list_accounts", err)
		return
	}
	accounts, err := h.ledger.Accounts(r.Context(), id.OwnerID)
	if err != nil {
		writeError(w, h.log, "list_accounts", err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccountHandler handles retrieving a specific account and its balance.
// It expects an "account_id" as a URL path parameter.
//
// Method: GET
// Path: /accounts/{account_id}
// Success: 200 OK
// Error: 400 Bad Request (for invalid account ID format)
// Error: 403 Forbidden (if the account belongs to someone else)
// Error: 404 Not Found (if account does not exist)
func (h *AccountHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "get_account", err)
		return
	}
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, h.log, "get_account", err)
		return
	}

	acc, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		writeError(w, h.log, "get_account", err)
		return
	}
	if err := canView(id, acc); err != nil {
		writeError(w, h.log, "get_account", err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ListTransactionsHandler returns an account's ledger entries, newest first.
// An optional "limit" query parameter bounds the result.
//
// Method: GET
// Path: /accounts/{account_id}/transactions
// Success: 200 OK
// Error: 400 Bad Request (for invalid account ID or limit)
// Error: 403 Forbidden, 404 Not Found
func (h *AccountHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "list_transactions", err)
		return
	}
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, h.log, "list_transactions", err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, h.log, "list_transactions", model.ErrInvalidInput)
			return
		}
	}

	acc, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		writeError(w, h.log, "list_transactions", err)
		return
	}
	if err := canView(id, acc); err != nil {
		writeError(w, h.log, "list_transactions", err)
		return
	}
	txs, err := h.ledger.History(r.Context(), accountID, limit)
	if err != nil {
		writeError(w, h.log, "list_transactions", err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
