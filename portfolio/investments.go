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

// BuyInvestment buys quantity units of an instrument, opening a position or
// averaging into the existing one. The price may not undercut the market quote.
func (m *Manager) BuyInvestment(ctx context.Context, owner auth.Identity, req model.BuyRequest) (*model.TradeResult, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: investment type %q", model.ErrInvalidInput, req.Type)
	}
	name := marketdata.NormalizeSymbol(req.Instrument)
	if name == "" {
		return nil, fmt.Errorf("%w: instrument is required", model.ErrInvalidInput)
	}
	price, err := m.buyPrice(name, req.UnitPrice)
	if err != nil {
		return nil, err
	}
	qty, cost, err := buyCost(req.Quantity, price)
	if err != nil {
		return nil, err
	}

	var result *model.TradeResult
	err = m.engine.Run(ctx, "investment_buy", func(tx storage.Tx) error {
		s, err := m.pay(ctx, tx, owner, req, cost, fmt.Sprintf("Buy %s %s @ %s", qty, name, price))
		if err != nil {
			return err
		}

		inv, err := tx.LockInvestmentByName(ctx, owner.OwnerID, name)
		switch {
		case errors.Is(err, model.ErrHoldingNotFound):
			inv = &model.Investment{
				ID:             uuid.New(),
				OwnerID:        owner.OwnerID,
				Type:           req.Type,
				Name:           name,
				Quantity:       qty,
				AveragePrice:   price,
				AmountInvested: cost,
				CurrentValue:   cost,
				InterestRate:   req.InterestRate,
				PurchasedAt:    m.engine.Now(),
			}
		case err != nil:
			return err
		default:
			inv.AveragePrice = model.WeightedAverage(inv.Quantity, inv.AveragePrice, qty, price)
			inv.Quantity = inv.Quantity.Add(qty)
			inv.AmountInvested = inv.AmountInvested.Add(cost)
			inv.CurrentValue = model.Cash(inv.Quantity.Mul(price))
			if req.InterestRate != nil {
				inv.InterestRate = req.InterestRate
			}
		}
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}

		result = &model.TradeResult{Settlement: *s, Quantity: qty, UnitPrice: price, Cash: cost, Investment: inv}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"owner_id": owner.OwnerID, "instrument": name, "cost": cost.StringFixed(model.CashPlaces)}).Info("investment bought")
	return result, nil
}

// SellInvestment sells part or all of a position at the market quote. The
// position is deleted when nothing is left.
func (m *Manager) SellInvestment(ctx context.Context, owner auth.Identity, holdingID uuid.UUID, req model.SellRequest) (*model.TradeResult, error) {
	var result *model.TradeResult
	err := m.engine.Run(ctx, "investment_sell", func(tx storage.Tx) error {
		inv, err := tx.LockInvestment(ctx, holdingID)
		if err != nil {
			return err
		}
		if inv.OwnerID != owner.OwnerID {
			return model.ErrHoldingNotFound
		}
		qty, err := sellQuantity(req.Quantity, inv.Quantity)
		if err != nil {
			return err
		}
		price, err := m.price(inv.Name)
		if err != nil {
			return err
		}
		proceeds, err := saleProceeds(qty, price)
		if err != nil {
			return err
		}

		s, err := m.payout(ctx, tx, owner, req, proceeds, fmt.Sprintf("Sell %s %s @ %s", qty, inv.Name, price))
		if err != nil {
			return err
		}

		result = &model.TradeResult{Settlement: *s, Quantity: qty, UnitPrice: price, Cash: proceeds}
		left := inv.Quantity.Sub(qty)
		if left.IsZero() {
			return tx.DeleteInvestment(ctx, inv.ID)
		}
		inv.Quantity = left
		inv.AmountInvested = model.Cash(left.Mul(inv.AveragePrice))
		inv.CurrentValue = model.Cash(left.Mul(price))
		if err := tx.SaveInvestment(ctx, inv); err != nil {
			return err
		}
		result.Investment = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"owner_id": owner.OwnerID, "holding_id": holdingID, "proceeds": result.Cash.StringFixed(model.CashPlaces)}).Info("investment sold")
	return result, nil
}
