package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func dec(s string) decimal.Decimal { return numeric.MustParse(s) }

func account(available string, positions ...domain.Position) domain.AccountState {
	return domain.AccountState{
		AvailableBalances: map[string]decimal.Decimal{"USDT": dec(available)},
		Positions:         positions,
	}
}

func testConfig() Config {
	return Config{
		MaxTotalPosition:     dec("1000"),
		MaxPositionPerMarket: dec("200"),
		MinAvailableBalance:  dec("10"),
		DuplicateCooldown:    60 * time.Second,
		QuoteToken:           "USDT",
	}
}

func buy(market int64, quote, base string) domain.OrderCandidate {
	return domain.OrderCandidate{
		MarketID:    market,
		TokenID:     "tok",
		Side:        domain.SideBuy,
		Price:       dec("0.5"),
		QuoteAmount: dec(quote),
		BaseAmount:  dec(base),
	}
}

func sell(market int64, base string) domain.OrderCandidate {
	return domain.OrderCandidate{
		MarketID:   market,
		TokenID:    "tok",
		Side:       domain.SideSell,
		Price:      dec("0.6"),
		BaseAmount: dec(base),
	}
}

func requireReason(t *testing.T, err error, want Reason) {
	t.Helper()
	v, ok := AsViolation(err)
	require.True(t, ok, "expected violation, got %v", err)
	assert.Equal(t, want, v.Reason)
}

func TestEvaluate_BeforeReset(t *testing.T) {
	m := NewManager(testConfig())
	_, err := m.Evaluate(buy(1, "10", "20"))
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.False(t, IsViolation(err))
}

func TestReset_Aggregates(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100",
		domain.Position{MarketID: 1, TokenID: "a", Shares: dec("10")},
		domain.Position{MarketID: 1, TokenID: "b", Shares: dec("5")},
		domain.Position{MarketID: 2, TokenID: "c", Shares: dec("7.5")},
	))
	assert.True(t, m.Ready())
	assert.Equal(t, "100", m.AvailableQuote().String())
	assert.Equal(t, "22.5", m.TotalPosition().String())
	assert.Equal(t, "15", m.MarketPosition(1).String())
	assert.Equal(t, "7.5", m.MarketPosition(2).String())
}

func TestReset_MissingQuoteTokenIsZero(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(domain.AccountState{AvailableBalances: map[string]decimal.Decimal{"USDC": dec("500")}})
	assert.True(t, m.AvailableQuote().IsZero())
}

func TestEvaluate_IsPure(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))

	d, err := m.Evaluate(buy(1, "20", "40"))
	require.NoError(t, err)
	assert.Equal(t, "80", d.ProjectedAvailable.String())

	// sin commit no cambia nada
	assert.Equal(t, "100", m.AvailableQuote().String())
	assert.True(t, m.TotalPosition().IsZero())
	assert.True(t, m.MarketPosition(1).IsZero())

	_, err = m.Evaluate(buy(1, "20", "40"))
	assert.NoError(t, err, "no cooldown without commit")
}

func TestEvaluate_DuplicateCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(testConfig(), WithClock(clock.Now))
	m.Reset(account("100"))

	d, err := m.Evaluate(buy(1, "10", "20"))
	require.NoError(t, err)
	m.Commit(d)

	clock.Advance(30 * time.Second)
	_, err = m.Evaluate(buy(1, "10", "20"))
	requireReason(t, err, ReasonDuplicateOrder)

	// cooldown survives a reset
	m.Reset(account("100"))
	_, err = m.Evaluate(buy(1, "10", "20"))
	requireReason(t, err, ReasonDuplicateOrder)

	clock.Advance(31 * time.Second)
	_, err = m.Evaluate(buy(1, "10", "20"))
	assert.NoError(t, err)
}

func TestEvaluate_DuplicateKeyIsCaseInsensitive(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))

	c := buy(1, "10", "20")
	c.TokenID = "TokABC"
	d, err := m.Evaluate(c)
	require.NoError(t, err)
	m.Commit(d)

	c.TokenID = "tokabc"
	_, err = m.Evaluate(c)
	requireReason(t, err, ReasonDuplicateOrder)
}

func TestEvaluate_BuyChecks(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTotalPosition = dec("100")
	cfg.MaxPositionPerMarket = dec("50")

	tests := []struct {
		name   string
		c      domain.OrderCandidate
		reason Reason
	}{
		{"zero quote", buy(1, "0", "10"), ReasonInvalidQuoteAmount},
		{"negative quote", buy(1, "-1", "10"), ReasonInvalidQuoteAmount},
		{"over available", buy(1, "101", "10"), ReasonInsufficientBalance},
		{"below min balance", buy(1, "95", "10"), ReasonMinBalance},
		{"total limit", buy(2, "10", "61"), ReasonTotalPositionLimit},
		{"market limit", buy(1, "10", "11"), ReasonMarketPositionLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(cfg)
			m.Reset(account("100",
				domain.Position{MarketID: 1, TokenID: "x", Shares: dec("40")},
			))
			_, err := m.Evaluate(tt.c)
			requireReason(t, err, tt.reason)
		})
	}
}

func TestEvaluate_MinBalanceBoundary(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))

	_, err := m.Evaluate(buy(1, "95", "10"))
	requireReason(t, err, ReasonMinBalance)

	d, err := m.Evaluate(buy(1, "85", "10"))
	require.NoError(t, err)
	assert.Equal(t, "15", d.ProjectedAvailable.String())

	d, err = m.Evaluate(buy(1, "90", "10"))
	require.NoError(t, err, "remaining equal to minimum is allowed")
	assert.Equal(t, "10", d.ProjectedAvailable.String())
}

func TestCommit_BuyThenSell(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))

	d, err := m.Evaluate(buy(1, "25", "50"))
	require.NoError(t, err)
	m.Commit(d)
	assert.Equal(t, "75", m.AvailableQuote().String())
	assert.Equal(t, "50", m.TotalPosition().String())

	d, err = m.Evaluate(sell(1, "30"))
	require.NoError(t, err)
	m.Commit(d)
	assert.Equal(t, "20", m.TotalPosition().String())
	assert.Equal(t, "20", m.MarketPosition(1).String())
	assert.Equal(t, "75", m.AvailableQuote().String(), "sell does not credit quote")
}

func TestCommit_ClosingPositionRemovesMarket(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100", domain.Position{MarketID: 3, TokenID: "t", Shares: dec("12")}))

	d, err := m.Evaluate(sell(3, "12"))
	require.NoError(t, err)
	m.Commit(d)
	assert.True(t, m.TotalPosition().IsZero())
	_, ok := m.marketPosition[3]
	assert.False(t, ok)
}

func TestEvaluate_SellLimits(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100",
		domain.Position{MarketID: 1, TokenID: "a", Shares: dec("10")},
		domain.Position{MarketID: 2, TokenID: "b", Shares: dec("50")},
	))

	// total 60 pero el mercado 1 solo tiene 10
	_, err := m.Evaluate(sell(1, "20"))
	requireReason(t, err, ReasonSellExceedsMarket)

	_, err = m.Evaluate(sell(2, "61"))
	requireReason(t, err, ReasonSellExceedsTotal)

	_, err = m.Evaluate(sell(1, "10"))
	assert.NoError(t, err)
}

func TestEvaluate_UnsupportedSide(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))
	c := buy(1, "10", "20")
	c.Side = "hold"
	_, err := m.Evaluate(c)
	requireReason(t, err, ReasonUnsupportedSide)
}

func TestEvaluate_UppercaseSideAccepted(t *testing.T) {
	m := NewManager(testConfig())
	m.Reset(account("100"))
	c := buy(1, "10", "20")
	c.Side = "BUY"
	_, err := m.Evaluate(c)
	assert.NoError(t, err)
}

func TestViolation_Error(t *testing.T) {
	err := error(&Violation{Reason: ReasonMinBalance, Detail: "x"})
	assert.Contains(t, err.Error(), "min_available_balance")
	assert.True(t, IsViolation(err))
	assert.False(t, IsViolation(errors.New("rpc")))
}
