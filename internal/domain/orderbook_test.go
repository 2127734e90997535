package domain_test

import (
	"testing"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, size string) domain.OrderbookLevel {
	return domain.OrderbookLevel{Price: decimal.RequireFromString(price), Size: decimal.RequireFromString(size)}
}

func TestNewTokenMetrics_TwoSided(t *testing.T) {
	book := domain.OrderBook{
		TokenID: "tok",
		Bids:    []domain.OrderbookLevel{lvl("0.40", "120"), lvl("0.39", "500")},
		Asks:    []domain.OrderbookLevel{lvl("0.45", "80")},
	}

	m := domain.NewTokenMetrics(book, 7, domain.OutcomeYes)

	require.True(t, m.TwoSided())
	require.NotNil(t, m.Spread)
	assert.Equal(t, "0.05", m.Spread.String())
	assert.Equal(t, "80", m.Liquidity.String())
	assert.Equal(t, "0.425", m.Mid().String())
	assert.Equal(t, int64(7), m.MarketID)
}

func TestNewTokenMetrics_OneSided(t *testing.T) {
	m := domain.NewTokenMetrics(domain.OrderBook{
		TokenID: "tok",
		Bids:    []domain.OrderbookLevel{lvl("0.40", "120")},
	}, 1, domain.OutcomeNo)

	assert.False(t, m.TwoSided())
	assert.Nil(t, m.Spread)
	assert.Equal(t, "120", m.Liquidity.String())
}

func TestNewTokenMetrics_EmptyBook(t *testing.T) {
	m := domain.NewTokenMetrics(domain.OrderBook{TokenID: "tok"}, 1, domain.OutcomeNo)
	assert.Nil(t, m.Spread)
	assert.True(t, m.Liquidity.IsZero())
}

func TestPlaceOrderRequest_HasSingleAmount(t *testing.T) {
	assert.True(t, domain.PlaceOrderRequest{AmountInQuote: "1"}.HasSingleAmount())
	assert.True(t, domain.PlaceOrderRequest{AmountInBase: "1"}.HasSingleAmount())
	assert.False(t, domain.PlaceOrderRequest{}.HasSingleAmount())
	assert.False(t, domain.PlaceOrderRequest{AmountInQuote: "1", AmountInBase: "1"}.HasSingleAmount())
}

func TestMarket_Tokens(t *testing.T) {
	m := domain.Market{ID: 3, YesTokenID: "y"}
	tokens := m.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, domain.OutcomeYes, tokens[0].Side)
}
