package marketdata

import (
	"testing"

	"go-bank-ledger/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTable_Convert(t *testing.T) {
	table, err := NewRateTable(model.EUR, DefaultRates)
	require.NoError(t, err)
	assert.Equal(t, model.EUR, table.Base())

	tests := []struct {
		amount   string
		from, to model.Currency
		want     string
	}{
		{"100", model.EUR, model.EUR, "100"},
		{"100", model.GBP, model.EUR, "117"},
		{"100", model.USD, model.EUR, "92"},
		{"117", model.EUR, model.GBP, "100"},
		{"100", model.GBP, model.USD, "127.17"},
	}
	for _, tt := range tests {
		got, err := table.Convert(decimal.RequireFromString(tt.amount), tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), "%s %s -> %s", tt.amount, tt.from, tt.to)
	}
}

func TestNewRateTable_Invalid(t *testing.T) {
	_, err := NewRateTable(model.Currency("JPY"), nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = NewRateTable(model.EUR, map[model.Currency]decimal.Decimal{model.GBP: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	table, err := NewRateTable(model.GBP, map[model.Currency]decimal.Decimal{model.GBP: decimal.NewFromInt(3)})
	require.NoError(t, err)
	_, err = table.Convert(decimal.NewFromInt(1), model.USD, model.GBP)
	assert.ErrorIs(t, err, model.ErrInvalidInput, "unknown currencies have no rate")

	same, err := table.Convert(decimal.NewFromInt(5), model.GBP, model.GBP)
	require.NoError(t, err)
	assert.Equal(t, "5", same.String())
}
