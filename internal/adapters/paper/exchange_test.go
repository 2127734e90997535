package paper_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alejandrodnm/spreadbot/internal/adapters/paper"
	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUpstream struct {
	orders   []ports.OrderRecord
	balances []ports.BalanceRecord
	err      error
	placed   int
}

func (m *mockUpstream) FetchActiveMarkets(context.Context) ([]domain.Market, error) {
	return []domain.Market{{ID: 1}}, m.err
}

func (m *mockUpstream) FetchOrderbook(_ context.Context, tokenID string) (ports.OrderbookRecord, error) {
	return ports.OrderbookRecord{TokenID: tokenID}, m.err
}

func (m *mockUpstream) FetchPositions(context.Context) ([]ports.PositionRecord, error) {
	return nil, m.err
}

func (m *mockUpstream) FetchOpenOrders(context.Context) ([]ports.OrderRecord, error) {
	return m.orders, m.err
}

func (m *mockUpstream) FetchBalances(context.Context) ([]ports.BalanceRecord, error) {
	return m.balances, m.err
}

func (m *mockUpstream) PlaceLimitOrder(context.Context, domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	m.placed++
	return domain.PlacedOrder{}, nil
}

func (m *mockUpstream) CancelOrder(context.Context, string) error { return nil }

func TestPlaceLimitOrder_NeverReachesUpstream(t *testing.T) {
	up := &mockUpstream{}
	ex := paper.New(up, "USDT")

	placed, err := ex.PlaceLimitOrder(context.Background(), domain.PlaceOrderRequest{
		MarketID: 7, TokenID: "t1", Side: domain.SideBuy, Price: "0.5", AmountInQuote: "10.0000",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, up.placed)
	assert.Equal(t, paper.StatusPaper, placed.Status)
	assert.True(t, strings.HasPrefix(placed.OrderID, "paper-"))
	assert.Equal(t, "10", ex.Reserved().String())
}

func TestPlaceLimitOrder_RejectsAmbiguousAmounts(t *testing.T) {
	ex := paper.New(&mockUpstream{}, "USDT")

	_, err := ex.PlaceLimitOrder(context.Background(), domain.PlaceOrderRequest{
		TokenID: "t1", Side: domain.SideBuy, Price: "0.5", AmountInQuote: "10", AmountInBase: "20",
	})
	assert.Error(t, err)
	assert.Empty(t, ex.Orders())
}

func TestOpenOrdersAndBalancesReflectPaperOrders(t *testing.T) {
	up := &mockUpstream{
		orders: []ports.OrderRecord{{OrderID: "real-1", Side: "sell", MakerAmount: "5"}},
		balances: []ports.BalanceRecord{
			{QuoteToken: "USDT", TotalBalance: "100", AvailableBalance: "100"},
			{QuoteToken: "USDC", TotalBalance: "50", AvailableBalance: "50"},
		},
	}
	ex := paper.New(up, "USDT")
	ctx := context.Background()

	_, err := ex.PlaceLimitOrder(ctx, domain.PlaceOrderRequest{
		MarketID: 7, TokenID: "t1", Side: domain.SideBuy, Price: "0.5", AmountInQuote: "30",
	})
	require.NoError(t, err)
	_, err = ex.PlaceLimitOrder(ctx, domain.PlaceOrderRequest{
		MarketID: 7, TokenID: "t2", Side: domain.SideSell, Price: "0.6", AmountInBase: "12",
	})
	require.NoError(t, err)

	orders, err := ex.FetchOpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "real-1", orders[0].OrderID)
	assert.Equal(t, "buy", orders[1].Side)
	assert.Equal(t, "30.0000", orders[1].MakerAmount)
	assert.Equal(t, "sell", orders[2].Side)
	assert.Equal(t, "12.0000", orders[2].MakerAmount)

	balances, err := ex.FetchBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "70.0000", balances[0].AvailableBalance)
	assert.Equal(t, "100", balances[0].TotalBalance)
	assert.Equal(t, "50", balances[1].AvailableBalance)
	// el slice del upstream no se modifica
	assert.Equal(t, "100", up.balances[0].AvailableBalance)
}

func TestCancelOrder(t *testing.T) {
	ex := paper.New(&mockUpstream{}, "USDT")
	ctx := context.Background()

	placed, err := ex.PlaceLimitOrder(ctx, domain.PlaceOrderRequest{
		TokenID: "t1", Side: domain.SideBuy, Price: "0.5", AmountInBase: "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "5", ex.Reserved().String())

	require.NoError(t, ex.CancelOrder(ctx, placed.OrderID))
	assert.Empty(t, ex.Orders())
	assert.True(t, ex.Reserved().IsZero())

	assert.ErrorIs(t, ex.CancelOrder(ctx, "real-1"), paper.ErrUnknownOrder)
}

func TestReadErrorsPassThrough(t *testing.T) {
	boom := errors.New("rpc down")
	ex := paper.New(&mockUpstream{err: boom}, "USDT")
	ctx := context.Background()

	_, err := ex.FetchOpenOrders(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = ex.FetchBalances(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = ex.FetchActiveMarkets(ctx)
	assert.ErrorIs(t, err, boom)
}
