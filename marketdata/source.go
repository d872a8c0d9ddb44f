package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
)

// Source fetches a batch of quotes from a price endpoint.
type Source interface {
	Fetch(ctx context.Context) ([]Quote, error)
}

// StaticSource serves fixed quotes. It backs tests and offline mode.
type StaticSource struct {
	Quotes []Quote
	Err    error
}

// Fetch implements Source.
func (s *StaticSource) Fetch(_ context.Context) ([]Quote, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]Quote(nil), s.Quotes...), nil
}

// HTTPSource reads quotes from a JSON endpoint returning either a list or an
// object with a "data" list of {"symbol"|"ticker", "name", "price", "change"}.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource with its own client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

type wireQuote struct {
	Symbol string          `json:"symbol"`
	Ticker string          `json:"ticker"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Change decimal.Decimal `json:"change"`
}

// Fetch implements Source. Transport failures and non-2xx answers are reported
// as model.ErrUpstreamUnavailable.
func (s *HTTPSource) Fetch(ctx context.Context) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: price endpoint returned %d", model.ErrUpstreamUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	return decodeQuotes(body, time.Now().UTC())
}

func decodeQuotes(body []byte, now time.Time) ([]Quote, error) {
	var list []wireQuote
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Data []wireQuote `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: malformed price payload: %v", model.ErrUpstreamUnavailable, err)
		}
		list = wrapped.Data
	}

	quotes := make([]Quote, 0, len(list))
	for _, w := range list {
		symbol := w.Symbol
		if symbol == "" {
			symbol = w.Ticker
		}
		if symbol == "" || !w.Price.IsPositive() {
			continue
		}
		quotes = append(quotes, Quote{
			Symbol:    NormalizeSymbol(symbol),
			Name:      w.Name,
			Price:     w.Price,
			Change:    w.Change,
			UpdatedAt: now,
		})
	}
	return quotes, nil
}
