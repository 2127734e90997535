package domain

import "github.com/shopspring/decimal"

// OrderCandidate is a proposed but unsubmitted order. It is consumed by
// exactly one evaluate/submit attempt.
type OrderCandidate struct {
	MarketID    int64
	TokenID     string
	Side        Side
	Price       decimal.Decimal
	QuoteAmount decimal.Decimal
	BaseAmount  decimal.Decimal
}

// PlaceOrderRequest is sent to the exchange order placer.
// Exactly one of AmountInQuote / AmountInBase must be non-empty.
type PlaceOrderRequest struct {
	MarketID      int64
	TokenID       string
	Side          Side
	Price         string
	AmountInQuote string
	AmountInBase  string
}

// HasSingleAmount reports whether exactly one amount field is set.
func (r PlaceOrderRequest) HasSingleAmount() bool {
	return (r.AmountInQuote == "") != (r.AmountInBase == "")
}

// PlacedOrder is the exchange's answer to a successful placement.
type PlacedOrder struct {
	OrderID string
	Status  string
}
