package engine

import (
	"context"
	"fmt"

	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Transfer moves money from one account to the account with the given number.
// Both accounts must share a currency.
func (e *Engine) Transfer(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error) {
	var result *model.TransferResult
	err := e.Run(ctx, "transfer", func(tx storage.Tx) error {
		to, err := tx.GetAccountByNumber(ctx, req.ToAccountNumber)
		if err != nil {
			return fmt.Errorf("destination %q: %w", req.ToAccountNumber, err)
		}
		if to.ID == req.FromAccountID {
			return model.ErrSameAccount
		}
		if err := checkAmount(req.Amount); err != nil {
			return err
		}

		s, err := e.Settle(ctx, tx, model.SettleRequest{
			PayerAccountID: req.FromAccountID,
			PayeeAccountID: to.ID,
			Amount:         req.Amount,
			Description:    req.Description,
			Type:           model.TxTransfer,
		})
		if err != nil {
			return err
		}
		result = &model.TransferResult{
			CorrelationID: s.CorrelationID,
			From:          s.Payer,
			To:            s.Payee,
			Debit:         s.Debit,
			Credit:        s.Credit,
			Amount:        s.Credit.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"correlation_id": result.CorrelationID,
		"from":           result.From.ID,
		"to":             result.To.ID,
	}).Info("transfer completed")
	return result, nil
}

// Deposit credits an account from the treasury.
func (e *Engine) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error) {
	return e.treasuryLeg(ctx, "deposit", accountID, amount, description, true)
}

// Withdraw debits an account into the treasury.
func (e *Engine) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*model.Settlement, error) {
	return e.treasuryLeg(ctx, "withdraw", accountID, amount, description, false)
}

func (e *Engine) treasuryLeg(ctx context.Context, op string, accountID uuid.UUID, amount decimal.Decimal, description string, credit bool) (*model.Settlement, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	var result *model.Settlement
	err := e.Run(ctx, op, func(tx storage.Tx) error {
		t, err := e.TreasuryAccount(ctx, tx)
		if err != nil {
			return err
		}
		req := model.SettleRequest{Amount: amount, Description: description}
		if credit {
			req.PayerAccountID, req.PayeeAccountID, req.Type = t.AccountID, accountID, model.TxDeposit
		} else {
			req.PayerAccountID, req.PayeeAccountID, req.Type = accountID, t.AccountID, model.TxWithdrawal
		}
		s, err := e.Settle(ctx, tx, req)
		if err != nil {
			return err
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"correlation_id": result.CorrelationID, "account_id": accountID}).Info(op + " completed")
	return result, nil
}
