package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alejandrodnm/spreadbot/config"
	"github.com/alejandrodnm/spreadbot/internal/account"
	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/execution"
	"github.com/alejandrodnm/spreadbot/internal/monitoring"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/alejandrodnm/spreadbot/internal/risk"
	"github.com/alejandrodnm/spreadbot/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExchange implementa ports.Exchange en memoria.
type mockExchange struct {
	markets     []domain.Market
	marketsErr  error
	panicOnList bool
	books       map[string]ports.OrderbookRecord
	balances    []ports.BalanceRecord
	positions   []ports.PositionRecord
	balanceErr  error
	balanceOK   int // balance calls that succeed before balanceErr kicks in
	balanceHits int
	placed      []domain.PlaceOrderRequest
}

func (m *mockExchange) FetchActiveMarkets(_ context.Context) ([]domain.Market, error) {
	if m.panicOnList {
		panic("nil map")
	}
	return m.markets, m.marketsErr
}

func (m *mockExchange) FetchOrderbook(_ context.Context, tokenID string) (ports.OrderbookRecord, error) {
	return m.books[tokenID], nil
}

func (m *mockExchange) FetchPositions(_ context.Context) ([]ports.PositionRecord, error) {
	return m.positions, nil
}

func (m *mockExchange) FetchOpenOrders(_ context.Context) ([]ports.OrderRecord, error) {
	return nil, nil
}

func (m *mockExchange) FetchBalances(_ context.Context) ([]ports.BalanceRecord, error) {
	m.balanceHits++
	if m.balanceErr != nil && m.balanceHits > m.balanceOK {
		return nil, m.balanceErr
	}
	return m.balances, nil
}

func (m *mockExchange) PlaceLimitOrder(_ context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	m.placed = append(m.placed, req)
	return domain.PlacedOrder{OrderID: fmt.Sprintf("o-%d", len(m.placed)), Status: "pending"}, nil
}

func (m *mockExchange) CancelOrder(_ context.Context, _ string) error { return nil }

type mockReporter struct {
	summaries []domain.CycleSummary
	onReport  func()
}

func (r *mockReporter) ReportCycle(_ context.Context, s domain.CycleSummary) error {
	r.summaries = append(r.summaries, s)
	if r.onReport != nil {
		r.onReport()
	}
	return nil
}

func newExchange() *mockExchange {
	return &mockExchange{
		markets: []domain.Market{
			{ID: 1, YesTokenID: "m1-yes", NoTokenID: "m1-no"},
			{ID: 2, YesTokenID: "m2-yes"},
		},
		books: map[string]ports.OrderbookRecord{
			"m1-yes": {TokenID: "m1-yes", Bids: []ports.LevelRecord{{Price: "0.40", Size: "100"}}, Asks: []ports.LevelRecord{{Price: "0.42", Size: "100"}}},
			"m1-no":  {TokenID: "m1-no", Bids: []ports.LevelRecord{{Price: "0.57", Size: "100"}}, Asks: []ports.LevelRecord{{Price: "0.60", Size: "100"}}},
			"m2-yes": {TokenID: "m2-yes", Bids: []ports.LevelRecord{{Price: "0.50", Size: "100"}}, Asks: []ports.LevelRecord{{Price: "0.51", Size: "100"}}},
		},
		balances: []ports.BalanceRecord{{QuoteToken: "USDT", TotalBalance: "100", AvailableBalance: "100"}},
	}
}

func newScheduler(ex *mockExchange, cfg Config, rep ports.CycleReporter) (*Scheduler, *monitoring.Recorder) {
	rm := risk.NewManager(risk.DefaultConfig())
	exec := execution.NewExecutor(ex, rm, nil)
	rec := monitoring.NewRecorder()
	s := New(cfg, Deps{
		Markets: ex,
		Account: account.NewManager(ex),
		Risk:    rm,
		Analyzer: strategy.NewSpreadAnalyzer(ex, strategy.Config{
			TopNTokens:   50,
			MinLiquidity: numeric.MustParse("10"),
			MaxSpread:    numeric.MustParse("0.1"),
			MinPrice:     numeric.MustParse("0.05"),
			MaxPrice:     numeric.MustParse("0.95"),
		}),
		Builder:  strategy.NewCandidateBuilder(numeric.MustParse("20")),
		Executor: exec,
		Sells:    execution.NewSellOrderManager(ex, exec, numeric.MustParse("5")),
		Metrics:  rec,
		Reporter: rep,
	})
	return s, rec
}

func TestRunOnce_BuyPass(t *testing.T) {
	ex := newExchange()
	rep := &mockReporter{}
	s, rec := newScheduler(ex, Config{PollInterval: time.Millisecond}, rep)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Failed())
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, 1, summary.Index)

	// 100 disponibles, mínimo 20: caben las tres órdenes de 20
	assert.Equal(t, 3.0, summary.Counts["buy_markets_considered"])
	assert.Equal(t, 3.0, summary.Counts["buy_orders_attempted"])
	assert.Equal(t, 3.0, summary.Counts["buy_orders_success"])
	assert.Len(t, ex.placed, 3)
	assert.Equal(t, "m2-yes", ex.placed[0].TokenID, "tightest spread goes first")
	assert.Equal(t, "20.0000", ex.placed[0].AmountInQuote)

	require.Len(t, rep.summaries, 1)
	assert.Equal(t, 3.0, rec.Snapshot()["buy_orders_success"])
}

func TestRunOnce_EnabledMarketsFilter(t *testing.T) {
	ex := newExchange()
	s, _ := newScheduler(ex, Config{EnabledMarkets: []int64{2}}, nil)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, summary.Counts["buy_orders_success"])
	require.Len(t, ex.placed, 1)
	assert.Equal(t, "m2-yes", ex.placed[0].TokenID)
}

func TestRunOnce_StartupRefreshFailure(t *testing.T) {
	ex := newExchange()
	ex.balanceErr = errors.New("unauthorized")
	s, _ := newScheduler(ex, Config{}, nil)

	_, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "unauthorized")
}

func TestCycle_ErrorIsContained(t *testing.T) {
	ex := newExchange()
	ex.marketsErr = errors.New("502 bad gateway")
	s, rec := newScheduler(ex, Config{}, nil)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Failed())
	assert.Contains(t, summary.Err, "502")
	assert.Equal(t, 1.0, rec.Snapshot()[monitoring.CycleErrors])

	// el siguiente ciclo funciona
	ex.marketsErr = nil
	summary, err = s.Cycle(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Failed())
	assert.Equal(t, 2, summary.Index)
	assert.Equal(t, 1.0, rec.Snapshot()[monitoring.CycleErrors])
}

func TestCycle_PanicIsRecovered(t *testing.T) {
	ex := newExchange()
	ex.panicOnList = true
	s, rec := newScheduler(ex, Config{}, nil)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary.Err, "panic")
	assert.Equal(t, 1.0, rec.Snapshot()[monitoring.CycleErrors])
}

func TestCycle_TrailingRefreshFailureCounted(t *testing.T) {
	ex := newExchange()
	ex.balanceErr = errors.New("timeout")
	ex.balanceOK = 2 // startup + mid-cycle refresh
	s, rec := newScheduler(ex, Config{}, nil)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Failed())
	assert.Equal(t, 1.0, rec.Snapshot()[monitoring.CycleErrors])
}

func TestRun_StopsOnCancel(t *testing.T) {
	ex := newExchange()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := &mockReporter{}
	rep.onReport = func() {
		if len(rep.summaries) == 2 {
			cancel()
		}
	}
	s, _ := newScheduler(ex, Config{PollInterval: time.Millisecond}, rep)

	err := s.Run(ctx)
	assert.NoError(t, err)
	assert.Len(t, rep.summaries, 2)
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("buy: %w", risk.ErrNotReady)))
	assert.True(t, IsFatal(fmt.Errorf("load: %w", config.ErrInvalid)))
	assert.False(t, IsFatal(errors.New("rpc")))
	assert.False(t, IsFatal(&risk.Violation{Reason: risk.ReasonMinBalance}))
}

func TestBuySummary_Counts(t *testing.T) {
	c := BuySummary{MarketsConsidered: 4, Attempted: 3, Success: 2, Failed: 1}.Counts()
	assert.Equal(t, 4.0, c["buy_markets_considered"])
	assert.Equal(t, 1.0, c["buy_orders_failed"])
}
