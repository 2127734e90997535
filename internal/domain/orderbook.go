package domain

import "github.com/shopspring/decimal"

// OrderbookLevel is one price level of a book.
type OrderbookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is the book of a single outcome token.
// The exchange returns bids best-first and asks best-first; no re-sorting
// happens here.
type OrderBook struct {
	TokenID string
	Bids    []OrderbookLevel
	Asks    []OrderbookLevel
}

// BestBid returns the first bid level, if any.
func (ob OrderBook) BestBid() (OrderbookLevel, bool) {
	if len(ob.Bids) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the first ask level, if any.
func (ob OrderBook) BestAsk() (OrderbookLevel, bool) {
	if len(ob.Asks) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Asks[0], true
}

// TokenMetrics scores one outcome token from its book.
type TokenMetrics struct {
	TokenID  string
	MarketID int64
	Side     string // "yes" | "no"
	BestBid  *OrderbookLevel
	BestAsk  *OrderbookLevel
	// Spread is ask - bid; nil when either side is missing.
	Spread *decimal.Decimal
	// Liquidity is min(best bid size, best ask size) over the sides present.
	Liquidity decimal.Decimal
}

// NewTokenMetrics computes spread and liquidity for a token book.
func NewTokenMetrics(book OrderBook, marketID int64, side string) TokenMetrics {
	m := TokenMetrics{
		TokenID:   book.TokenID,
		MarketID:  marketID,
		Side:      side,
		Liquidity: decimal.Zero,
	}

	if bid, ok := book.BestBid(); ok {
		m.BestBid = &bid
	}
	if ask, ok := book.BestAsk(); ok {
		m.BestAsk = &ask
	}

	switch {
	case m.BestBid != nil && m.BestAsk != nil:
		spread := m.BestAsk.Price.Sub(m.BestBid.Price)
		m.Spread = &spread
		m.Liquidity = decimal.Min(m.BestBid.Size, m.BestAsk.Size)
	case m.BestBid != nil:
		m.Liquidity = m.BestBid.Size
	case m.BestAsk != nil:
		m.Liquidity = m.BestAsk.Size
	}
	return m
}

// TwoSided reports whether both a best bid and a best ask exist.
func (m TokenMetrics) TwoSided() bool {
	return m.BestBid != nil && m.BestAsk != nil
}

// Mid returns the arithmetic mean of best bid and best ask.
// Callers must check TwoSided first.
func (m TokenMetrics) Mid() decimal.Decimal {
	return m.BestBid.Price.Add(m.BestAsk.Price).Div(decimal.NewFromInt(2))
}
