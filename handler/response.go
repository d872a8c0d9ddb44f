package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/model"

	"github.com/sirupsen/logrus"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps a ledger error kind to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	switch model.KindOf(err) {
	case "InvalidAmount", "SameAccount", "CurrencyMismatch", "InvalidInput":
		return http.StatusBadRequest
	case "Forbidden":
		return http.StatusForbidden
	case "AccountNotFound", "LoanNotFound", "HoldingNotFound", "CardNotFound":
		return http.StatusNotFound
	case "InvalidState", "PersistenceConflict", "DuplicateAccount":
		return http.StatusConflict
	case "InsufficientFunds", "InsufficientTreasuryFunds", "InsufficientHolding":
		return http.StatusUnprocessableEntity
	case "UpstreamUnavailable":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("could not write JSON response")
	}
}

// writeError writes err as {"error", "kind"}. Internal failures are logged and
// their details withheld from the client.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, op string, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error(), Kind: model.KindOf(err)}
	if errors.Is(err, auth.ErrUnauthenticated) {
		body.Kind = "Unauthenticated"
	}
	if status == http.StatusInternalServerError {
		log.WithField("op", op).WithError(err).Error("request failed")
		body.Error = "internal error"
	} else {
		log.WithFields(logrus.Fields{"op": op, "kind": body.Kind}).Debug(err.Error())
	}
	writeJSON(w, status, body)
}
