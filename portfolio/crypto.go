package portfolio

import (
	"context"
	"errors"
	"fmt"

	"go-bank-ledger/auth"
	"go-bank-ledger/marketdata"
	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BuyCrypto buys quantity coins into the owner's wallet at the requested price,
// which may not undercut the market quote.
func (m *Manager) BuyCrypto(ctx context.Context, owner auth.Identity, req model.BuyRequest) (*model.TradeResult, error) {
	symbol := marketdata.NormalizeSymbol(req.Instrument)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", model.ErrInvalidInput)
	}
	price, err := m.buyPrice(symbol, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	qty, cost, err := buyCost(req.Quantity, price)
	if err != nil {
		return nil, err
	}

	var result *model.TradeResult
	err = m.engine.Run(ctx, "crypto_buy", func(tx storage.Tx) error {
		s, err := m.pay(ctx, tx, owner, req, cost, fmt.Sprintf("Buy %s %s @ %s", qty, symbol, price))
		if err != nil {
			return err
		}

		h, err := tx.LockCryptoHolding(ctx, owner.OwnerID, symbol)
		switch {
		case errors.Is(err, model.ErrHoldingNotFound):
			name := req.Name
			if name == "" {
				name = symbol
			}
			h = &model.CryptoHolding{
				ID:           uuid.New(),
				OwnerID:      owner.OwnerID,
				Symbol:       symbol,
				Name:         name,
				Amount:       qty,
				AveragePrice: price,
			}
		case err != nil:
			return err
		default:
			h.AveragePrice = model.WeightedAverage(h.Amount, h.AveragePrice, qty, price)
			h.Amount = h.Amount.Add(qty)
		}
		h.UpdatedAt = m.engine.Now()
		if err := tx.SaveCryptoHolding(ctx, h); err != nil {
			return err
		}

		result = &model.TradeResult{Settlement: *s, Quantity: qty, UnitPrice: price, Cash: cost, Crypto: h}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"owner_id": owner.OwnerID, "symbol": symbol, "amount": qty}).Info("crypto bought")
	return result, nil
}

// SellCrypto sells coins of req.Instrument at the market quote. The wallet
// entry is deleted once its amount reaches zero.
func (m *Manager) SellCrypto(ctx context.Context, owner auth.Identity, req model.SellRequest) (*model.TradeResult, error) {
	symbol := marketdata.NormalizeSymbol(req.Instrument)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", model.ErrInvalidInput)
	}

	var result *model.TradeResult
	err := m.engine.Run(ctx, "crypto_sell", func(tx storage.Tx) error {
		h, err := tx.LockCryptoHolding(ctx, owner.OwnerID, symbol)
		if errors.Is(err, model.ErrHoldingNotFound) {
			return fmt.Errorf("%w: no %s in wallet", model.ErrInsufficientHolding, symbol)
		}
		if err != nil {
			return err
		}
		qty, err := sellQuantity(req.Quantity, h.Amount)
		if err != nil {
			return err
		}
		price, err := m.price(symbol)
		if err != nil {
			return err
		}
		proceeds, err := saleProceeds(qty, price)
		if err != nil {
			return err
		}

		s, err := m.payout(ctx, tx, owner, req, proceeds, fmt.Sprintf("Sell %s %s @ %s", qty, symbol, price))
		if err != nil {
			return err
		}

		result = &model.TradeResult{Settlement: *s, Quantity: qty, UnitPrice: price, Cash: proceeds}
		left := h.Amount.Sub(qty)
		if left.IsZero() {
			return tx.DeleteCryptoHolding(ctx, h.ID)
		}
		h.Amount = left
		h.UpdatedAt = m.engine.Now()
		if err := tx.SaveCryptoHolding(ctx, h); err != nil {
			return err
		}
		result.Crypto = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"owner_id": owner.OwnerID, "symbol": symbol, "proceeds": result.Cash.StringFixed(model.CashPlaces)}).Info("crypto sold")
	return result, nil
}
