package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := seedAccount(t, s, uuid.New(), 10)
	b := seedAccount(t, s, uuid.New(), 0)
	require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(1)))

	before := s.view()
	require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(2)))

	assert.Equal(t, "9", before.accounts[a.ID].Balance.String(), "a committed state is never written again")
	assert.Len(t, before.transactions, 2)
	after := s.view()
	assert.Equal(t, "7", after.accounts[a.ID].Balance.String())
	assert.Len(t, after.transactions, 4)

	t.Run("untouched maps are shared", func(t *testing.T) {
		l := &model.Loan{ID: uuid.New(), BorrowerID: a.OwnerID, AccountID: a.ID, Status: model.LoanPending}
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.CreateLoan(ctx, l) }))
		prev := s.view()
		require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(1)))
		next := s.view()
		assert.Equal(t, reflect.ValueOf(prev.loans).Pointer(), reflect.ValueOf(next.loans).Pointer(), "a transfer does not copy the loans")
		assert.NotEqual(t, reflect.ValueOf(prev.accounts).Pointer(), reflect.ValueOf(next.accounts).Pointer())
		assert.Contains(t, next.loans, l.ID)
	})

	t.Run("rolled back appends are not visible", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.ExecTx(ctx, func(tx Tx) error {
			entry := &model.Transaction{ID: uuid.New(), AccountID: b.ID, Type: model.TxDeposit, Amount: decimal.NewFromInt(99)}
			if err := tx.AppendTransactions(ctx, entry); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		history, err := s.ListTransactions(ctx, b.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for _, tx := range history {
			assert.NotEqual(t, "99", tx.Amount.String())
		}

		require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(1)))
		history, err = s.ListTransactions(ctx, b.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, "1", history[0].Amount.String(), "the next commit reuses the rolled back slot")
	})
}
