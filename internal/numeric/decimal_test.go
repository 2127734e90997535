package numeric_test

import (
	"testing"

	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := numeric.Parse(" 0.45 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.45")))

	d, err = numeric.Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = numeric.Parse("abc")
	assert.Error(t, err)
}

func TestQuantizeDown_TruncatesTowardZero(t *testing.T) {
	got := numeric.QuantizeDown4(decimal.RequireFromString("1.23456789"))
	assert.Equal(t, "1.2345", got.String())

	got = numeric.QuantizeDown4(decimal.RequireFromString("0.00009"))
	assert.True(t, got.IsZero())
}

func TestQuantizeDown_QuoteOverBid(t *testing.T) {
	base := numeric.QuantizeDown4(decimal.NewFromInt(20).Div(decimal.RequireFromString("0.4")))
	assert.Equal(t, "50.0000", base.StringFixed(4))

	dust := numeric.QuantizeDown4(decimal.NewFromInt(1).Div(decimal.NewFromInt(1000)))
	assert.Equal(t, "0.001", dust.String())

	dust = numeric.QuantizeDown4(decimal.NewFromInt(1).Div(decimal.NewFromInt(100000)))
	assert.True(t, dust.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "50.0000", numeric.Format(decimal.NewFromInt(50)))
	assert.Equal(t, "12.3456", numeric.Format(decimal.RequireFromString("12.345678")))
}

func TestSafeDiv(t *testing.T) {
	def := decimal.NewFromInt(-1)
	assert.True(t, numeric.SafeDiv(decimal.NewFromInt(1), decimal.Zero, def).Equal(def))
	assert.True(t, numeric.SafeDiv(decimal.NewFromInt(1), decimal.NewFromInt(2), def).Equal(decimal.RequireFromString("0.5")))
}
