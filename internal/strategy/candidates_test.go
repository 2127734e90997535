package strategy

import (
	"testing"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metric(tokenID string, market int64, bid, ask string) domain.TokenMetrics {
	return domain.NewTokenMetrics(domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.OrderbookLevel{{Price: dec(bid), Size: dec("100")}},
		Asks:    []domain.OrderbookLevel{{Price: dec(ask), Size: dec("100")}},
	}, market, domain.OutcomeYes)
}

func TestBuildBuyCandidates_Sizes(t *testing.T) {
	b := NewCandidateBuilder(dec("20"))
	got := b.BuildBuyCandidates([]domain.TokenMetrics{metric("t1", 1, "0.4", "0.42")}, domain.AccountState{})

	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, domain.SideBuy, c.Side)
	assert.Equal(t, "0.4", c.Price.String())
	assert.Equal(t, "20", c.QuoteAmount.String())
	assert.Equal(t, "50.0000", c.BaseAmount.StringFixed(4))
	assert.Equal(t, int64(1), c.MarketID)
}

func TestBuildBuyCandidates_TruncatesNotRounds(t *testing.T) {
	b := NewCandidateBuilder(dec("20"))
	got := b.BuildBuyCandidates([]domain.TokenMetrics{metric("t1", 1, "0.3", "0.31")}, domain.AccountState{})
	require.Len(t, got, 1)
	// 20 / 0.3 = 66.6666...
	assert.Equal(t, "66.6666", got[0].BaseAmount.String())
}

func TestBuildBuyCandidates_DropsDust(t *testing.T) {
	b := NewCandidateBuilder(dec("0.00005"))
	got := b.BuildBuyCandidates([]domain.TokenMetrics{metric("t1", 1, "0.9", "0.91")}, domain.AccountState{})
	assert.Empty(t, got)
}

func TestBuildBuyCandidates_SkipsHeldTokens(t *testing.T) {
	metrics := []domain.TokenMetrics{
		metric("open-buy", 1, "0.4", "0.42"),
		metric("open-sell", 1, "0.4", "0.42"),
		metric("position", 2, "0.4", "0.42"),
		metric("empty-position", 2, "0.4", "0.42"),
		metric("free", 3, "0.4", "0.42"),
	}
	account := domain.AccountState{
		OpenOrders: []domain.OpenOrder{
			{OrderID: "1", TokenID: "OPEN-BUY", Side: "BUY"},
			{OrderID: "2", TokenID: "open-sell", Side: domain.SideSell},
		},
		Positions: []domain.Position{
			{TokenID: "position", Shares: dec("3")},
			{TokenID: "empty-position", Shares: dec("0")},
		},
	}

	got := NewCandidateBuilder(dec("20")).BuildBuyCandidates(metrics, account)
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.TokenID)
	}
	assert.Equal(t, []string{"open-sell", "empty-position", "free"}, ids)
}

func TestBuildBuyCandidates_NonPositiveQuote(t *testing.T) {
	got := NewCandidateBuilder(dec("0")).BuildBuyCandidates([]domain.TokenMetrics{metric("t", 1, "0.4", "0.5")}, domain.AccountState{})
	assert.Empty(t, got)
}

func TestBuildBuyCandidates_SkipsZeroBidAndOneSided(t *testing.T) {
	oneSided := domain.NewTokenMetrics(domain.OrderBook{
		TokenID: "one",
		Asks:    []domain.OrderbookLevel{{Price: dec("0.5"), Size: dec("10")}},
	}, 1, domain.OutcomeNo)
	got := NewCandidateBuilder(dec("20")).BuildBuyCandidates(
		[]domain.TokenMetrics{metric("zero", 1, "0", "0.1"), oneSided}, domain.AccountState{})
	assert.Empty(t, got)
}
