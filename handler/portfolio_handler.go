package handler

import (
	"net/http"

	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

// PortfolioHandler serves investment and crypto trades.
type PortfolioHandler struct {
	portfolio Portfolio
	log       logrus.FieldLogger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(p Portfolio, log logrus.FieldLogger) *PortfolioHandler {
	return &PortfolioHandler{portfolio: p, log: log}
}

// BuyInvestmentHandler buys stocks or funds.
//
// Method: POST
// Path: /investments
// Success: 201 Created
// Error: 400 Bad Request (price below the quote), 403 Forbidden, 422 (insufficient funds), 503 (no quote)
func (h *PortfolioHandler) BuyInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "investment_buy", err)
		return
	}
	var req model.BuyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "investment_buy", err)
		return
	}
	result, err := h.portfolio.BuyInvestment(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, "investment_buy", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SellInvestmentHandler sells part or all of a position at the market quote.
//
// Method: POST
// Path: /investments/{investment_id}/sell
// Success: 200 OK
// Error: 404 Not Found, 422 (insufficient holding or treasury), 503 (no price)
func (h *PortfolioHandler) SellInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "investment_sell", err)
		return
	}
	holdingID, err := pathID(r, "investment_id")
	if err != nil {
		writeError(w, h.log, "investment_sell", err)
		return
	}
	var req model.SellRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "investment_sell", err)
		return
	}
	result, err := h.portfolio.SellInvestment(r.Context(), id, holdingID, req)
	if err != nil {
		writeError(w, h.log, "investment_sell", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// BuyCryptoHandler buys coins into the caller's wallet.
//
// Method: POST
// Path: /crypto/buy
func (h *PortfolioHandler) BuyCryptoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "crypto_buy", err)
		return
	}
	var req model.BuyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "crypto_buy", err)
		return
	}
	result, err := h.portfolio.BuyCrypto(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, "crypto_buy", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// SellCryptoHandler sells coins from the caller's wallet.
//
// Method: POST
// Path: /crypto/sell
func (h *PortfolioHandler) SellCryptoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "crypto_sell", err)
		return
	}
	var req model.SellRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, "crypto_sell", err)
		return
	}
	result, err := h.portfolio.SellCrypto(r.Context(), id, req)
	if err != nil {
		writeError(w, h.log, "crypto_sell", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SummaryHandler values the caller's holdings.
//
// Method: GET
// Path: /portfolio
func (h *PortfolioHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		writeError(w, h.log, "portfolio_summary", err)
		return
	}
	sum, err := h.portfolio.Summary(r.Context(), id)
	if err != nil {
		writeError(w, h.log, "portfolio_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
