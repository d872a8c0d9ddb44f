package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btc(price string) Quote {
	return Quote{Symbol: "BTC", Name: "Bitcoin", Price: decimal.RequireFromString(price)}
}

func TestPoller_ServesStaleQuotesOnFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	src := &StaticSource{Quotes: []Quote{btc("43000")}}
	p := NewPoller("crypto", src, time.Minute, log)

	_, err := p.Quote("BTC")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable, "no quote before the first refresh")

	require.NoError(t, p.Refresh(context.Background()))
	q, err := p.Quote(" btc ")
	require.NoError(t, err)
	assert.Equal(t, "43000", q.Price.String())

	src.Err = errors.New("connection refused")
	assert.Error(t, p.Refresh(context.Background()))

	q, err = p.Quote("BTC")
	require.NoError(t, err, "the last good quote survives a failed refresh")
	assert.Equal(t, "43000", q.Price.String())

	_, err = p.Quote("DOGE")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	assert.Len(t, p.Quotes(), 1)
}

func TestPoller_Run(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewPoller("crypto", &StaticSource{Quotes: []Quote{btc("42000")}}, 10*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := p.Quote("BTC")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestMultiFeed(t *testing.T) {
	log, _ := test.NewNullLogger()
	crypto := NewPoller("crypto", &StaticSource{Quotes: []Quote{btc("43000")}}, time.Minute, log)
	equities := NewPoller("equities", &StaticSource{Quotes: []Quote{{Symbol: "AAPL", Price: decimal.NewFromInt(190)}}}, time.Minute, log)
	require.NoError(t, crypto.Refresh(context.Background()))
	require.NoError(t, equities.Refresh(context.Background()))

	feed := MultiFeed{crypto, equities}
	q, err := feed.Quote("aapl")
	require.NoError(t, err)
	assert.Equal(t, "190", q.Price.String())

	_, err = feed.Quote("MSFT")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)

	_, err = MultiFeed{}.Quote("BTC")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}
