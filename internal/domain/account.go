package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// NormalizeSide lowercases a side coming from the exchange or a candidate.
func NormalizeSide(s string) Side {
	return Side(strings.ToLower(strings.TrimSpace(s)))
}

// Position is the holding of one outcome token.
type Position struct {
	MarketID     int64
	TokenID      string
	OutcomeSide  string
	Shares       decimal.Decimal
	AveragePrice decimal.NullDecimal
}

// OpenOrder is a resting order reported by the exchange.
type OpenOrder struct {
	OrderID   string
	MarketID  int64
	TokenID   string
	Side      Side
	Price     decimal.Decimal
	Remaining decimal.Decimal
}

// AccountState is a full account snapshot. It is rebuilt on every refresh
// and never mutated afterwards.
type AccountState struct {
	TotalBalances     map[string]decimal.Decimal
	AvailableBalances map[string]decimal.Decimal
	Positions         []Position
	OpenOrders        []OpenOrder
}

// Available returns the available balance for a quote symbol, zero if absent.
func (a AccountState) Available(symbol string) decimal.Decimal {
	if v, ok := a.AvailableBalances[symbol]; ok {
		return v
	}
	return decimal.Zero
}

// TotalShares sums shares across all positions.
func (a AccountState) TotalShares() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Positions {
		total = total.Add(p.Shares)
	}
	return total
}
