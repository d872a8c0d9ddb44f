package handler

import (
	"net/http"

	"go-bank-ledger/marketdata"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves worker statistics and market quotes.
type AdminHandler struct {
	ledger Ledger
	feed   marketdata.Feed
	log    logrus.FieldLogger
}

// NewAdminHandler creates a new AdminHandler. feed may be nil.
func NewAdminHandler(ledger Ledger, feed marketdata.Feed, log logrus.FieldLogger) *AdminHandler {
	if feed == nil {
		feed = marketdata.MultiFeed{}
	}
	return &AdminHandler{ledger: ledger, feed: feed, log: log}
}

// StatsHandler returns ledger-wide counts. Workers only.
//
// Method: GET
// Path: /admin/stats
func (h *AdminHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := h.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, h.log, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// QuoteHandler returns the latest cached quote for a symbol.
//
// Method: GET
// Path: /quotes/{symbol}
// Error: 503 Service Unavailable (no quote cached)
func (h *AdminHandler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.feed.Quote(mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, h.log, "quote", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
