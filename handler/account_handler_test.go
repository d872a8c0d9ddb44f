package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountHandler(t *testing.T) {
	user := auth.Identity{OwnerID: uuid.New(), Role: auth.RoleUser}

	t.Run("success", func(t *testing.T) {
		mockLedger := &MockLedger{
			OpenAccountFunc: func(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error) {
				assert.Equal(t, user.OwnerID, owner)
				assert.Equal(t, model.USD, currency)
				assert.Equal(t, model.Checking, typ)
				return ownedAccount(owner), nil
			},
		}
		handler := NewAccountHandler(mockLedger, quietLogger())
		body := `{"currency": "USD"}`
		req := asUser(httptest.NewRequest("POST", "/accounts", strings.NewReader(body)), user)
		rr := httptest.NewRecorder()

		handler.CreateAccountHandler(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"account_number":"ES00000000000000000001"`)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		mockLedger := &MockLedger{
			OpenAccountFunc: func(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error) {
				return nil, model.ErrInvalidInput
			},
		}
		handler := NewAccountHandler(mockLedger, quietLogger())
		req := asUser(httptest.NewRequest("POST", "/accounts", strings.NewReader(`{"currency": "JPY"}`)), user)
		rr := httptest.NewRecorder()

		handler.CreateAccountHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"kind":"InvalidInput"`)
	})

	t.Run("invalid json", func(t *testing.T) {
		handler := NewAccountHandler(&MockLedger{}, quietLogger())
		body := `{"currency": "EUR"` // Malformed
		req := asUser(httptest.NewRequest("POST", "/accounts", strings.NewReader(body)), user)
		rr := httptest.NewRecorder()
		handler.CreateAccountHandler(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no identity", func(t *testing.T) {
		handler := NewAccountHandler(&MockLedger{}, quietLogger())
		req := httptest.NewRequest("POST", "/accounts", strings.NewReader(`{"currency": "EUR"}`))
		rr := httptest.NewRecorder()
		handler.CreateAccountHandler(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetAccountHandler(t *testing.T) {
	user := auth.Identity{OwnerID: uuid.New(), Role: auth.RoleUser}
	expectedAccount := ownedAccount(user.OwnerID)

	serve := func(ledger Ledger, req *http.Request) *httptest.ResponseRecorder {
		handler := NewAccountHandler(ledger, quietLogger())
		rr := httptest.NewRecorder()
		router := mux.NewRouter()
		router.HandleFunc("/accounts/{account_id}", handler.GetAccountHandler)
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("success", func(t *testing.T) {
		mockLedger := &MockLedger{
			AccountFunc: func(ctx context.Context, id uuid.UUID) (*model.Account, error) {
				assert.Equal(t, expectedAccount.ID, id)
				return expectedAccount, nil
			},
		}
		req := asUser(httptest.NewRequest("GET", "/accounts/"+expectedAccount.ID.String(), nil), user)
		rr := serve(mockLedger, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resultAccount model.Account
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resultAccount))
		assert.Equal(t, expectedAccount.ID, resultAccount.ID)
		assert.True(t, expectedAccount.Balance.Equal(resultAccount.Balance))
	})

	t.Run("someone else's account", func(t *testing.T) {
		mockLedger := &MockLedger{
			AccountFunc: func(ctx context.Context, id uuid.UUID) (*model.Account, error) {
				return ownedAccount(uuid.New()), nil
			},
		}
		req := asUser(httptest.NewRequest("GET", "/accounts/"+uuid.NewString(), nil), user)
		rr := serve(mockLedger, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("worker sees any account", func(t *testing.T) {
		mockLedger := &MockLedger{
			AccountFunc: func(ctx context.Context, id uuid.UUID) (*model.Account, error) {
				return ownedAccount(uuid.New()), nil
			},
		}
		worker := auth.Identity{OwnerID: uuid.New(), Role: auth.RoleWorker}
		req := asUser(httptest.NewRequest("GET", "/accounts/"+uuid.NewString(), nil), worker)
		rr := serve(mockLedger, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		mockLedger := &MockLedger{
			AccountFunc: func(ctx context.Context, id uuid.UUID) (*model.Account, error) {
				return nil, model.ErrAccountNotFound
			},
		}
		req := asUser(httptest.NewRequest("GET", "/accounts/"+uuid.NewString(), nil), user)
		rr := serve(mockLedger, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), `"kind":"AccountNotFound"`)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := asUser(httptest.NewRequest("GET", "/accounts/123", nil), user)
		rr := serve(&MockLedger{}, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListTransactionsHandler(t *testing.T) {
	user := auth.Identity{OwnerID: uuid.New(), Role: auth.RoleUser}
	acc := ownedAccount(user.OwnerID)

	mockLedger := &MockLedger{
		AccountFunc: func(ctx context.Context, id uuid.UUID) (*model.Account, error) {
			return acc, nil
		},
		HistoryFunc: func(ctx context.Context, accountID uuid.UUID, limit int) ([]model.Transaction, error) {
			assert.Equal(t, 10, limit)
			return []model.Transaction{{ID: uuid.New(), AccountID: accountID, Type: model.TxDeposit, Amount: decimal.NewFromInt(5)}}, nil
		},
	}
	handler := NewAccountHandler(mockLedger, quietLogger())
	router := mux.NewRouter()
	router.HandleFunc("/accounts/{account_id}/transactions", handler.ListTransactionsHandler)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(httptest.NewRequest("GET", "/accounts/"+acc.ID.String()+"/transactions?limit=10", nil), user))
	assert.Equal(t, http.StatusOK, rr.Code)
	var txs []model.Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &txs))
	assert.Len(t, txs, 1)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asUser(httptest.NewRequest("GET", "/accounts/"+acc.ID.String()+"/transactions?limit=x", nil), user))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
