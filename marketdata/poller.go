package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-bank-ledger/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Default refresh intervals.
const (
	CryptoInterval   = 30 * time.Second
	EquitiesInterval = 5 * time.Minute
)

// Poller refreshes quotes from a Source on a fixed interval and serves the last
// good batch. A failed refresh keeps the previous quotes.
type Poller struct {
	name     string
	source   Source
	interval time.Duration
	log      logrus.FieldLogger

	mu      sync.RWMutex
	quotes  map[string]Quote
	lastErr error
}

// NewPoller creates a Poller. Call Run to start polling.
func NewPoller(name string, source Source, interval time.Duration, log logrus.FieldLogger) *Poller {
	return &Poller{
		name:     name,
		source:   source,
		interval: interval,
		log:      log.WithField("feed", name),
		quotes:   map[string]Quote{},
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.log.WithError(err).Warn("price refresh failed, serving stale quotes")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh fetches once, with a few quick retries.
func (p *Poller) Refresh(ctx context.Context) error {
	var quotes []Quote
	fetch := func() error {
		q, err := p.source.Fetch(ctx)
		if err != nil {
			return err
		}
		quotes = q
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	err := backoff.Retry(fetch, backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		return err
	}
	for _, q := range quotes {
		p.quotes[q.Symbol] = q
	}
	p.log.WithField("count", len(quotes)).Debug("quotes refreshed")
	return nil
}

// Quote implements Feed.
func (p *Poller) Quote(symbol string) (Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[NormalizeSymbol(symbol)]
	if !ok {
		if p.lastErr != nil {
			return Quote{}, fmt.Errorf("%w: %s: %v", model.ErrUpstreamUnavailable, p.name, p.lastErr)
		}
		return Quote{}, fmt.Errorf("%w: no %s quote for %s", model.ErrUpstreamUnavailable, p.name, symbol)
	}
	return q, nil
}

// Quotes returns every cached quote.
func (p *Poller) Quotes() []Quote {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Quote, 0, len(p.quotes))
	for _, q := range p.quotes {
		out = append(out, q)
	}
	return out
}
