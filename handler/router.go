package handler

import (
	"net/http"

	"go-bank-ledger/auth"
	"go-bank-ledger/marketdata"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Services are the dependencies wired into the router.
type Services struct {
	Ledger    Ledger
	Loans     Loans
	Portfolio Portfolio
	Cards     Cards
	Feed      marketdata.Feed
	Identity  auth.Provider
}

// NewRouter registers every route. All routes require an identity; worker
// routes additionally require the worker role.
func NewRouter(s Services, log logrus.FieldLogger) *mux.Router {
	accounts := NewAccountHandler(s.Ledger, log)
	transactions := NewTransactionHandler(s.Ledger, log)
	loans := NewLoanHandler(s.Loans, log)
	portfolio := NewPortfolioHandler(s.Portfolio, log)
	cards := NewCardHandler(s.Cards, log)
	admin := NewAdminHandler(s.Ledger, s.Feed, log)

	provider := s.Identity
	if provider == nil {
		provider = auth.HeaderProvider{}
	}
	worker := func(f http.HandlerFunc) http.Handler { return auth.RequireWorker(f) }

	r := mux.NewRouter()
	r.Use(auth.Middleware(provider, log))

	r.HandleFunc("/accounts", accounts.CreateAccountHandler).Methods("POST")
	r.HandleFunc("/accounts", accounts.ListAccountsHandler).Methods("GET")
	r.HandleFunc("/accounts/{account_id}", accounts.GetAccountHandler).Methods("GET")
	r.HandleFunc("/accounts/{account_id}/transactions", accounts.ListTransactionsHandler).Methods("GET")

	r.HandleFunc("/transfers", transactions.TransferHandler).Methods("POST")
	r.Handle("/deposits", worker(transactions.DepositHandler)).Methods("POST")
	r.HandleFunc("/withdrawals", transactions.WithdrawHandler).Methods("POST")

	r.HandleFunc("/loans", loans.RequestLoanHandler).Methods("POST")
	r.HandleFunc("/loans", loans.ListLoansHandler).Methods("GET")
	r.Handle("/loans/pending", worker(loans.ListPendingHandler)).Methods("GET")
	r.Handle("/loans/{loan_id}/approve", worker(loans.ApproveHandler)).Methods("POST")
	r.Handle("/loans/{loan_id}/reject", worker(loans.RejectHandler)).Methods("POST")
	r.Handle("/loans/{loan_id}/default", worker(loans.DefaultHandler)).Methods("POST")
	r.HandleFunc("/loans/{loan_id}/installments", loans.PayInstallmentHandler).Methods("POST")

	r.HandleFunc("/investments", portfolio.BuyInvestmentHandler).Methods("POST")
	r.HandleFunc("/investments/{investment_id}/sell", portfolio.SellInvestmentHandler).Methods("POST")
	r.HandleFunc("/portfolio", portfolio.SummaryHandler).Methods("GET")
	r.HandleFunc("/crypto/buy", portfolio.BuyCryptoHandler).Methods("POST")
	r.HandleFunc("/crypto/sell", portfolio.SellCryptoHandler).Methods("POST")

	r.HandleFunc("/cards", cards.IssueCardHandler).Methods("POST")
	r.HandleFunc("/cards", cards.ListCardsHandler).Methods("GET")
	r.HandleFunc("/cards/{card_id}/deactivate", cards.DeactivateCardHandler).Methods("POST")

	r.Handle("/admin/stats", worker(admin.StatsHandler)).Methods("GET")
	r.HandleFunc("/quotes/{symbol}", admin.QuoteHandler).Methods("GET")

	return r
}
