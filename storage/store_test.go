package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seq int64

// seedAccount inserts an account with the given balance.
func seedAccount(t *testing.T, s Store, owner uuid.UUID, balance int64) *model.Account {
	t.Helper()
	seq++
	acc := &model.Account{
		ID:        uuid.New(),
		Number:    fmt.Sprintf("ES%020d", seq),
		OwnerID:   owner,
		Currency:  model.EUR,
		Type:      model.Checking,
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.ExecTx(context.Background(), func(tx Tx) error {
		return tx.CreateAccount(context.Background(), acc)
	}))
	return acc
}

// move is a minimal two-legged settlement used to exercise the Tx contract.
func move(ctx context.Context, s Store, from, to uuid.UUID, amount decimal.Decimal) error {
	return s.ExecTx(ctx, func(tx Tx) error {
		locked, err := tx.LockAccounts(ctx, from, to)
		if err != nil {
			return err
		}
		src, dst := locked[from], locked[to]
		if src.Balance.LessThan(amount) {
			return model.ErrInsufficientFunds
		}
		if err := tx.UpdateBalance(ctx, from, src.Balance.Sub(amount)); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, to, dst.Balance.Add(amount)); err != nil {
			return err
		}
		corr := uuid.New()
		now := time.Now().UTC()
		return tx.AppendTransactions(ctx,
			&model.Transaction{ID: uuid.New(), AccountID: from, Type: model.TxTransfer, Amount: amount.Neg(), Currency: src.Currency, Counterparty: &dst.Number, CorrelationID: corr, CreatedAt: now},
			&model.Transaction{ID: uuid.New(), AccountID: to, Type: model.TxTransfer, Amount: amount, Currency: dst.Currency, Counterparty: &src.Number, CorrelationID: corr, CreatedAt: now},
		)
	})
}

func balanceOf(t *testing.T, s Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	acc, err := s.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance
}

// runStoreSuite checks the behaviour every Store implementation shares. fresh
// returns an empty store for each subtest.
func runStoreSuite(t *testing.T, fresh func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and get account", func(t *testing.T) {
		s := fresh(t)
		owner := uuid.New()
		acc := seedAccount(t, s, owner, 100)

		got, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.Number, got.Number)
		assert.True(t, decimal.NewFromInt(100).Equal(got.Balance))

		byNumber, err := s.GetAccountByNumber(ctx, acc.Number)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byNumber.ID)

		exists, err := s.AccountNumberExists(ctx, acc.Number)
		require.NoError(t, err)
		assert.True(t, exists)

		list, err := s.ListAccounts(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("account not found", func(t *testing.T) {
		s := fresh(t)
		_, err := s.GetAccount(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrAccountNotFound)
		_, err = s.GetAccountByNumber(ctx, "ES99999999999999999999")
		assert.ErrorIs(t, err, model.ErrAccountNotFound)
	})

	t.Run("duplicate account number", func(t *testing.T) {
		s := fresh(t)
		acc := seedAccount(t, s, uuid.New(), 0)
		dup := *acc
		dup.ID = uuid.New()
		err := s.ExecTx(ctx, func(tx Tx) error { return tx.CreateAccount(ctx, &dup) })
		assert.ErrorIs(t, err, model.ErrDuplicateAccount)
	})

	t.Run("transfer conserves money and logs both legs", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 500)
		b := seedAccount(t, s, uuid.New(), 100)

		require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(200)))

		assert.True(t, decimal.NewFromInt(300).Equal(balanceOf(t, s, a.ID)))
		assert.True(t, decimal.NewFromInt(300).Equal(balanceOf(t, s, b.ID)))

		debits, err := s.ListTransactions(ctx, a.ID, 10)
		require.NoError(t, err)
		credits, err := s.ListTransactions(ctx, b.ID, 10)
		require.NoError(t, err)
		require.Len(t, debits, 1)
		require.Len(t, credits, 1)
		assert.Equal(t, debits[0].CorrelationID, credits[0].CorrelationID)
		assert.True(t, debits[0].Amount.Add(credits[0].Amount).IsZero())
		assert.Equal(t, b.Number, *debits[0].Counterparty)
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 50)
		b := seedAccount(t, s, uuid.New(), 0)
		boom := errors.New("boom")

		err := s.ExecTx(ctx, func(tx Tx) error {
			if err := tx.UpdateBalance(ctx, a.ID, decimal.Zero); err != nil {
				return err
			}
			if err := tx.UpdateBalance(ctx, b.ID, decimal.NewFromInt(50)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.True(t, decimal.NewFromInt(50).Equal(balanceOf(t, s, a.ID)))
		assert.True(t, balanceOf(t, s, b.ID).IsZero())
	})

	t.Run("negative balance rejected", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 10)
		err := s.ExecTx(ctx, func(tx Tx) error {
			return tx.UpdateBalance(ctx, a.ID, decimal.NewFromInt(-1))
		})
		assert.ErrorIs(t, err, model.ErrInvalidAmount)
		assert.True(t, decimal.NewFromInt(10).Equal(balanceOf(t, s, a.ID)))
	})

	t.Run("lock missing account", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 10)
		err := move(ctx, s, a.ID, uuid.New(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, model.ErrAccountNotFound)
	})

	t.Run("transaction history is newest first and limited", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 100)
		b := seedAccount(t, s, uuid.New(), 0)
		for i := 1; i <= 3; i++ {
			require.NoError(t, move(ctx, s, a.ID, b.ID, decimal.NewFromInt(int64(i))))
			time.Sleep(2 * time.Millisecond)
		}
		txs, err := s.ListTransactions(ctx, b.ID, 2)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "3", txs[0].Amount.String())
		assert.Equal(t, "2", txs[1].Amount.String())
	})

	t.Run("treasury and stats", func(t *testing.T) {
		s := fresh(t)
		_, err := s.Treasury(ctx)
		assert.ErrorIs(t, err, model.ErrTreasuryMissing)

		tr := seedAccount(t, s, uuid.Nil, 1000)
		user := seedAccount(t, s, uuid.New(), 40)
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error {
			return tx.SetTreasury(ctx, model.Treasury{AccountID: tr.ID, AccountNumber: tr.Number, Currency: tr.Currency})
		}))

		got, err := s.Treasury(ctx)
		require.NoError(t, err)
		assert.Equal(t, tr.ID, got.AccountID)
		assert.Equal(t, tr.Number, got.AccountNumber)

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, st.Accounts)
		assert.True(t, user.Balance.Equal(st.TotalBalance), "treasury is excluded from customer balances")
	})

	t.Run("loans", func(t *testing.T) {
		s := fresh(t)
		borrower := uuid.New()
		acc := seedAccount(t, s, borrower, 0)
		l := &model.Loan{
			ID:               uuid.New(),
			BorrowerID:       borrower,
			AccountID:        acc.ID,
			Type:             model.PersonalLoan,
			Amount:           decimal.NewFromInt(12000),
			InterestRate:     decimal.NewFromInt(6),
			TermMonths:       24,
			MonthlyPayment:   decimal.RequireFromString("531.85"),
			RemainingBalance: decimal.NewFromInt(12000),
			Status:           model.LoanPending,
			CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.CreateLoan(ctx, l) }))

		pending, err := s.ListLoans(ctx, model.LoanFilter{Status: model.LoanPending})
		require.NoError(t, err)
		require.Len(t, pending, 1)

		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error {
			locked, err := tx.LockLoan(ctx, l.ID)
			if err != nil {
				return err
			}
			locked.Status = model.LoanActive
			return tx.UpdateLoan(ctx, locked)
		}))
		got, err := s.GetLoan(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LoanActive, got.Status)

		mine, err := s.ListLoans(ctx, model.LoanFilter{BorrowerID: borrower})
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		_, err = s.GetLoan(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrLoanNotFound)
	})

	t.Run("holdings", func(t *testing.T) {
		s := fresh(t)
		owner := uuid.New()
		inv := &model.Investment{
			ID:             uuid.New(),
			OwnerID:        owner,
			Type:           model.Stocks,
			Name:           "ACME",
			Quantity:       decimal.NewFromInt(3),
			AveragePrice:   decimal.NewFromInt(10),
			AmountInvested: decimal.NewFromInt(30),
			CurrentValue:   decimal.NewFromInt(30),
			PurchasedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.SaveInvestment(ctx, inv) }))
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error {
			got, err := tx.LockInvestmentByName(ctx, owner, "ACME")
			if err != nil {
				return err
			}
			got.Quantity = decimal.NewFromInt(5)
			return tx.SaveInvestment(ctx, got)
		}))
		list, err := s.ListInvestments(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "5", list[0].Quantity.String())

		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.DeleteInvestment(ctx, inv.ID) }))
		_, err = s.GetInvestment(ctx, inv.ID)
		assert.ErrorIs(t, err, model.ErrHoldingNotFound)

		h := &model.CryptoHolding{
			ID:           uuid.New(),
			OwnerID:      owner,
			Symbol:       "BTC",
			Name:         "Bitcoin",
			Amount:       decimal.RequireFromString("0.01"),
			AveragePrice: decimal.NewFromInt(43000),
			UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.SaveCryptoHolding(ctx, h) }))
		got, err := s.GetCryptoHolding(ctx, owner, "BTC")
		require.NoError(t, err)
		assert.Equal(t, "0.01", got.Amount.String())

		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.DeleteCryptoHolding(ctx, h.ID) }))
		wallet, err := s.ListCryptoHoldings(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, wallet)
	})

	t.Run("cards", func(t *testing.T) {
		s := fresh(t)
		owner := uuid.New()
		acc := seedAccount(t, s, owner, 0)
		c := &model.Card{
			ID:               uuid.New(),
			AccountID:        acc.ID,
			Number:           "4000000000000001",
			Type:             model.DebitCard,
			CVV:              "123",
			ExpiryDate:       time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
			PointsMultiplier: 1,
			Active:           true,
			CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.CreateCard(ctx, c) }))

		cards, err := s.ListCards(ctx, owner)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.True(t, cards[0].Active)

		c.Active = false
		require.NoError(t, s.ExecTx(ctx, func(tx Tx) error { return tx.UpdateCard(ctx, c) }))
		got, err := s.GetCard(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		none, err := s.ListCards(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, none)

		dup := *c
		dup.ID = uuid.New()
		err = s.ExecTx(ctx, func(tx Tx) error { return tx.CreateCard(ctx, &dup) })
		assert.ErrorIs(t, err, model.ErrPersistenceConflict, "card numbers are unique")
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := fresh(t)
		a := seedAccount(t, s, uuid.New(), 10)
		b := seedAccount(t, s, uuid.New(), 0)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, move(cancelled, s, a.ID, b.ID, decimal.NewFromInt(1)))
		assert.True(t, decimal.NewFromInt(10).Equal(balanceOf(t, s, a.ID)))
	})

	t.Run("concurrent transfers", func(t *testing.T) {
		s := fresh(t)
		initialBalance := decimal.NewFromInt(10000)
		a := seedAccount(t, s, uuid.New(), 10000)
		b := seedAccount(t, s, uuid.New(), 10000)
		transferAmount := decimal.NewFromInt(10)
		numTransfers := 50

		var wg sync.WaitGroup
		errs := make(chan error, numTransfers*2)
		for i := 0; i < numTransfers; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if err := move(context.Background(), s, a.ID, b.ID, transferAmount); err != nil {
					errs <- err
				}
			}()
			go func() {
				defer wg.Done()
				if err := move(context.Background(), s, b.ID, a.ID, transferAmount); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		var errorList []error
		for err := range errs {
			errorList = append(errorList, err)
		}
		require.Empty(t, errorList, "concurrent transfers should not produce errors: %v", errorList)
		assert.True(t, initialBalance.Equal(balanceOf(t, s, a.ID)))
		assert.True(t, initialBalance.Equal(balanceOf(t, s, b.ID)))
	})

	t.Run("circular transfers do not deadlock", func(t *testing.T) {
		s := fresh(t)
		var ring []*model.Account
		for i := 0; i < 4; i++ {
			ring = append(ring, seedAccount(t, s, uuid.New(), 1000))
		}

		var wg sync.WaitGroup
		errs := make(chan error, 100)
		for i := 0; i < 25; i++ {
			for j := range ring {
				wg.Add(1)
				from, to := ring[j].ID, ring[(j+1)%len(ring)].ID
				go func() {
					defer wg.Done()
					if err := move(context.Background(), s, from, to, decimal.NewFromInt(1)); err != nil {
						errs <- err
					}
				}()
			}
		}
		wg.Wait()
		close(errs)

		var errorList []error
		for err := range errs {
			errorList = append(errorList, err)
		}
		require.Empty(t, errorList, "circular transfers should not cause deadlocks: %v", errorList)

		total := decimal.Zero
		for _, acc := range ring {
			total = total.Add(balanceOf(t, s, acc.ID))
		}
		assert.True(t, decimal.NewFromInt(4000).Equal(total))
	})
}
