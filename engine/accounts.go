package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const numberAttempts = 5

var accountNumberPattern = regexp.MustCompile(`^ES\d{20}$`)

// ValidAccountNumber reports whether s has the "ES" + 20 digits format.
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// NewAccountNumber returns a random account number.
func NewAccountNumber() (string, error) {
	digits, err := RandomDigits(20)
	if err != nil {
		return "", err
	}
	return "ES" + digits, nil
}

// RandomDigits returns n decimal digits from crypto/rand.
func RandomDigits(n int) (string, error) {
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("could not generate digits: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// OpenAccount creates an empty account with a fresh, unique account number.
func (e *Engine) OpenAccount(ctx context.Context, owner uuid.UUID, currency model.Currency, typ model.AccountType) (*model.Account, error) {
	if owner == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", model.ErrInvalidInput)
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidInput, currency)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unsupported account type %q", model.ErrInvalidInput, typ)
	}

	for i := 0; i < numberAttempts; i++ {
		number, err := e.newNumber()
		if err != nil {
			return nil, err
		}
		exists, err := e.store.AccountNumberExists(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("could not check account number: %w", err)
		}
		if exists {
			continue
		}

		acc := &model.Account{
			ID:        uuid.New(),
			Number:    number,
			OwnerID:   owner,
			Currency:  currency,
			Type:      typ,
			Balance:   decimal.Zero,
			CreatedAt: e.now(),
		}
		err = e.Run(ctx, "open_account", func(tx storage.Tx) error {
			return tx.CreateAccount(ctx, acc)
		})
		if errors.Is(err, model.ErrDuplicateAccount) {
			continue
		}
		if err != nil {
			return nil, err
		}

		e.log.WithFields(logrus.Fields{"account_id": acc.ID, "owner_id": owner}).Info("account opened")
		return acc, nil
	}
	return nil, fmt.Errorf("%w: no unique account number after %d attempts", model.ErrPersistenceConflict, numberAttempts)
}

// EnsureTreasury makes sure the treasury singleton exists, creating its account
// with the opening balance on first start. An existing treasury is left as is.
func (e *Engine) EnsureTreasury(ctx context.Context, number string, currency model.Currency, opening decimal.Decimal) (*model.Treasury, error) {
	if !ValidAccountNumber(number) {
		return nil, fmt.Errorf("%w: treasury account number %q", model.ErrInvalidInput, number)
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidInput, currency)
	}
	if opening.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance %s", model.ErrInvalidAmount, opening)
	}

	var result *model.Treasury
	err := e.Run(ctx, "ensure_treasury", func(tx storage.Tx) error {
		if t, err := tx.Treasury(ctx); err == nil {
			result = t
			return nil
		} else if !errors.Is(err, model.ErrTreasuryMissing) {
			return err
		}

		acc, err := tx.GetAccountByNumber(ctx, number)
		switch {
		case errors.Is(err, model.ErrAccountNotFound):
			acc = &model.Account{
				ID:        uuid.New(),
				Number:    number,
				OwnerID:   uuid.Nil,
				Currency:  currency,
				Type:      model.Checking,
				Balance:   model.Cash(opening),
				CreatedAt: e.now(),
			}
			if err := tx.CreateAccount(ctx, acc); err != nil {
				return err
			}
			if acc.Balance.IsPositive() {
				// Genesis entry: the only single-legged record in the log.
				entry := &model.Transaction{
					ID:            uuid.New(),
					AccountID:     acc.ID,
					Type:          model.TxDeposit,
					Amount:        acc.Balance,
					Currency:      currency,
					Description:   "treasury opening balance",
					CorrelationID: uuid.New(),
					CreatedAt:     acc.CreatedAt,
				}
				if err := tx.AppendTransactions(ctx, entry); err != nil {
					return err
				}
			}
		case err != nil:
			return err
		}

		t := model.Treasury{AccountID: acc.ID, AccountNumber: acc.Number, Currency: acc.Currency}
		if err := tx.SetTreasury(ctx, t); err != nil {
			return err
		}
		result = &t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not ensure treasury: %w", err)
	}
	return result, nil
}
