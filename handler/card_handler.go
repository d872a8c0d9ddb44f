package handler

import (
	"net/http"

	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

// CardHandler serves card issuance.
type CardHandler struct {
	cards Cards
	log   logrus.FieldLogger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards Cards, log logrus.FieldLogger) *CardHandler {
	return &CardHandler{cards: cards, log: log}
}

// IssueCardHandler issues a card on one of the caller's accounts.
//
// Method: POST
// Path: /cards
// Success: 201 Created
func (h *CardHandler) IssueCardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "card_issue", err)
		return
	}
	var req model.IssueCardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "card_issue", err)
		return
	}
	c, err := h.cards.IssueCard(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, "card_issue", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCardsHandler returns the caller's cards.
//
// Method: GET
// Path: /cards
func (h *CardHandler) ListCardsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "card_list", err)
		return
	}
	cards, err := h.cards.ListCards(r.Context(), id)
	if err != nil {
		writeError(w, h.log, "card_list", err)
		return
	}
	if cards == nil {
		cards = []model.Card{}
	}
	writeJSON(w, http.StatusOK, cards)
}

// DeactivateCardHandler turns a card off.
//
// Method: POST
// Path: /cards/{card_id}/deactivate
func (h *CardHandler) DeactivateCardHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "card_deactivate", err)
		return
	}
	cardID, err := pathID(r, "card_id")
	if err != nil {
		writeError(w, h.log, "card_deactivate", err)
		return
	}
	c, err := h.cards.DeactivateCard(r.Context(), id, cardID)
	if err != nil {
		writeError(w, h.log, "card_deactivate", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
