// Package card issues and deactivates payment cards. Cards are linked to an
// account but never move money themselves.
package card

import (
	"context"
	"fmt"
	"time"

	"go-bank-ledger/auth"
	"go-bank-ledger/engine"
	"go-bank-ledger/model"
	"go-bank-ledger/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	validity          = 3 * 365 * 24 * time.Hour
	disposableLife    = 7 * 24 * time.Hour
	creditMultiplier  = 2
	defaultMultiplier = 1
)

// Service issues cards for account owners.
type Service struct {
	engine  *engine.Engine
	log     logrus.FieldLogger
	numbers func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithCardNumbers replaces the random card number generator.
func WithCardNumbers(gen func() (string, error)) Option {
	return func(s *Service) { s.numbers = gen }
}

// NewService creates a Service.
func NewService(e *engine.Engine, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{engine: e, log: log, numbers: newCardNumber}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newCardNumber returns a random 16-digit Visa-style number.
func newCardNumber() (string, error) {
	now := s.engine.Now()
	var limit *decimal.Decimal
	if req.CreditLimit != nil {
		l := model.Cash(*req.CreditLimit)
		limit = &l
	}

	var c *model.Card
	err := s.engine.Run(ctx, "card_issue", func(tx storage.Tx) error {
		acc, err := tx.GetAccount(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if err := auth.CheckOwner(owner, acc); err != nil {
			return err
		}

		// Drawn per attempt; a number collision is retried as a conflict.
		number, err := s.numbers()
		if err != nil {
			return err
		}
		cvv, err := engine.RandomDigits(3)
		if err != nil {
			return err
		}
		card := &model.Card{
			ID:               uuid.New(),
			AccountID:        req.AccountID,
			Number:           number,
			Type:             req.Type,
			CVV:              cvv,
			ExpiryDate:       now.Add(validity),
			CreditLimit:      limit,
			PointsMultiplier: multiplier,
			Active:           true,
			CreatedAt:        now,
		}
		if req.Type == model.DisposableCard {
			expires := now.Add(disposableLife)
			card.ExpiresAt = &expires
		}
		if err := tx.CreateCard(ctx, card); err != nil {
			return err
		}
		c = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"card_id": c.ID, "account_id": c.AccountID, "type": c.Type}).Info("card issued")
	return c, nil
}

// ListCards returns the cards on all of the owner's accounts.
func (s *Service) ListCards(ctx context.Context, owner auth.Identity) ([]model.Card, error) {
	cards, err := s.engine.Store().ListCards(ctx, owner.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("could not list cards: %w", err)
	}
	return cards, nil
}

// DeactivateCard turns a card off. Deactivating an inactive card is a no-op.
func (s *Service) DeactivateCard(ctx context.Context, owner auth.Identity, cardID uuid.UUID) (*model.Card, error) {
	var result *model.Card
	err := s.engine.Run(ctx, "card_deactivate", func(tx storage.Tx) error {
		c, err := tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		acc, err := tx.GetAccount(ctx, c.AccountID)
		if err != nil {
			return err
		}
		if acc.OwnerID != owner.OwnerID {
			return model.ErrCardNotFound
		}
		result = c
		if !c.Active {
			return nil
		}
		c.Active = false
		return tx.UpdateCard(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
