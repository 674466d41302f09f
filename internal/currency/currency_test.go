package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateBaseCurrencyIsOne(t *testing.T) {
	svc := NewService(nil)
	rate, err := svc.Rate("KZT")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestRateAndConvert(t *testing.T) {
	svc := NewService(map[string]decimal.Decimal{"USD": decimal.NewFromInt(500)})

	rate, err := svc.Rate("USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(500)))

	got, err := svc.Convert(decimal.NewFromInt(100), "USD")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(50000)))
}

func TestRateUnknownCurrency(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Rate("XYZ")
	require.Error(t, err)
}

func TestCodesSorted(t *testing.T) {
	svc := NewService(nil)
	assert.Equal(t, []string{"EUR", "RUB", "USD"}, svc.Codes())
}
