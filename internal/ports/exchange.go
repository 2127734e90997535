package ports

import (
	"context"

	"github.com/alejandrodnm/spreadbot/internal/domain"
)

// Raw records returned by the exchange. Numeric fields stay as the exchange's
// decimal strings; internal/account and internal/strategy parse them.

// LevelRecord is one raw orderbook level.
type LevelRecord struct {
	Price string
	Size  string
}

// OrderbookRecord is a raw book, best levels first.
type OrderbookRecord struct {
	TokenID string
	Bids    []LevelRecord
	Asks    []LevelRecord
}

// PositionRecord is a raw position.
type PositionRecord struct {
	MarketID    int64
	TokenID     string
	OutcomeSide string
	SharesOwned string
	AvgPrice    string
}

// OrderRecord is a raw open order.
type OrderRecord struct {
	OrderID     string
	MarketID    int64
	TokenID     string
	Side        string
	Price       string
	MakerAmount string
}

// BalanceRecord is the raw balance of one quote token.
type BalanceRecord struct {
	QuoteToken       string
	TotalBalance     string
	AvailableBalance string
}

// MarketSource lists tradable markets.
type MarketSource interface {
	// FetchActiveMarkets returns every market in "activated" status,
	// paginating internally.
	FetchActiveMarkets(ctx context.Context) ([]domain.Market, error)
}

// OrderbookSource returns the book of a single outcome token.
type OrderbookSource interface {
	FetchOrderbook(ctx context.Context, tokenID string) (OrderbookRecord, error)
}

// AccountSource returns the raw account records.
type AccountSource interface {
	FetchPositions(ctx context.Context) ([]PositionRecord, error)
	// FetchOpenOrders returns orders in "open" status only.
	FetchOpenOrders(ctx context.Context) ([]OrderRecord, error)
	FetchBalances(ctx context.Context) ([]BalanceRecord, error)
}

// OrderPlacer submits and cancels limit orders.
type OrderPlacer interface {
	// PlaceLimitOrder fails when the exchange rejects the order or when the
	// request does not carry exactly one amount.
	PlaceLimitOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Exchange is the full capability set the bot needs from the exchange.
// Every call is an RPC that may fail; callers only distinguish success from
// failure.
type Exchange interface {
	MarketSource
	OrderbookSource
	AccountSource
	OrderPlacer
}
