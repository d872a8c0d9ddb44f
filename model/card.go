package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardType is the kind of payment card.
type CardType string

const (
	DebitCard      CardType = "debit"
	CreditCard     CardType = "credit"
	DisposableCard CardType = "disposable"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case DebitCard, CreditCard, DisposableCard:
		return true
	}
	return false
}

// Card is a payment card linked to an account.
type Card struct {
	ID               uuid.UUID        `json:"id"`
	AccountID        uuid.UUID        `json:"account_id"`
	Number           string           `json:"card_number"`
	Type             CardType         `json:"card_type"`
	CVV              string           `json:"cvv"`
	ExpiryDate       time.Time        `json:"expiry_date"`
	CreditLimit      *decimal.Decimal `json:"credit_limit,omitempty"`
	CurrentDebt      decimal.Decimal  `json:"current_debt"`
	PointsMultiplier int              `json:"points_multiplier"`
	Active           bool             `json:"is_active"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IssueCardRequest defines the JSON body for issuing a card.
type IssueCardRequest struct {
	AccountID   uuid.UUID        `json:"account_id"`
	Type        CardType         `json:"card_type"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
}
