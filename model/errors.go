package model

import "errors"

// Error kinds returned by the ledger. Callers match them with errors.Is;
// implementations wrap them with context using %w.
var (
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrInsufficientTreasuryFunds = errors.New("insufficient treasury funds")
	ErrInsufficientHolding       = errors.New("insufficient holding")
	ErrAccountNotFound           = errors.New("account not found")
	ErrSameAccount               = errors.New("source and destination accounts are the same")
	ErrInvalidState              = errors.New("invalid loan state transition")
	ErrPersistenceConflict       = errors.New("concurrent write conflict")
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")

	ErrCurrencyMismatch = errors.New("account currencies differ")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrHoldingNotFound  = errors.New("holding not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateAccount = errors.New("account number already exists")
	ErrTreasuryMissing  = errors.New("treasury account not configured")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInsufficientTreasuryFunds, "InsufficientTreasuryFunds"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInsufficientHolding, "InsufficientHolding"},
	{ErrAccountNotFound, "AccountNotFound"},
	{ErrSameAccount, "SameAccount"},
	{ErrInvalidState, "InvalidState"},
	{ErrPersistenceConflict, "PersistenceConflict"},
	{ErrUpstreamUnavailable, "UpstreamUnavailable"},
	{ErrCurrencyMismatch, "CurrencyMismatch"},
	{ErrLoanNotFound, "LoanNotFound"},
	{ErrHoldingNotFound, "HoldingNotFound"},
	{ErrCardNotFound, "CardNotFound"},
	{ErrForbidden, "Forbidden"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrDuplicateAccount, "DuplicateAccount"},
	{ErrTreasuryMissing, "TreasuryMissing"},
}

// KindOf returns the name of the ledger error kind err wraps, or "Internal".
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// Retryable reports whether the failed call may be repeated unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistenceConflict) || errors.Is(err, ErrUpstreamUnavailable)
}
