package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTableToBase(t *testing.T) {
	tbl := NewRateTable("USD")
	eur := New(decimal.NewFromFloat(100), "EUR")
	usd, err := tbl.ToBase(eur)
	require.NoError(t, err)
	assert.Equal(t, Currency("USD"), usd.Currency)
	assert.True(t, usd.Amount.GreaterThan(decimal.Zero))
}

func TestRateTableUnknownCurrency(t *testing.T) {
	tbl := NewRateTable("USD")
	_, err := tbl.ToBase(New(decimal.NewFromFloat(1), "XYZ"))
	require.Error(t, err)
}

func TestCompareNormalizedRelativeTolerance(t *testing.T) {
	tbl := NewRateTable("USD")
	a := New(decimal.NewFromFloat(1000), "USD")
	b := New(decimal.NewFromFloat(1004), "USD")
	ok, variance, err := tbl.CompareNormalized(a, b, DefaultRelativeTolerance)
	require.NoError(t, err)
	assert.True(t, ok, "variance=%s should be within 0.5%% of 1004", variance)

	c := New(decimal.NewFromFloat(1100), "USD")
	ok, _, err = tbl.CompareNormalized(a, c, DefaultRelativeTolerance)
	require.NoError(t, err)
	assert.False(t, ok)
}
