// Package account turns the exchange's raw balance, position and order
// records into a typed AccountState snapshot.
package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/shopspring/decimal"
)

// Manager refreshes account snapshots from the exchange.
type Manager struct {
	source ports.AccountSource
}

// NewManager creates a Manager reading from source.
func NewManager(source ports.AccountSource) *Manager {
	return &Manager{source: source}
}

// Refresh fetches balances, positions and open orders and builds a fresh
// snapshot. Any RPC or parse failure fails the whole refresh; a partial
// snapshot is never returned.
func (m *Manager) Refresh(ctx context.Context) (domain.AccountState, error) {
	balances, err := m.source.FetchBalances(ctx)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("account.Refresh: balances: %w", err)
	}
	positions, err := m.source.FetchPositions(ctx)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("account.Refresh: positions: %w", err)
	}
	orders, err := m.source.FetchOpenOrders(ctx)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("account.Refresh: orders: %w", err)
	}

	state := domain.AccountState{
		TotalBalances:     make(map[string]decimal.Decimal, len(balances)),
		AvailableBalances: make(map[string]decimal.Decimal, len(balances)),
		Positions:         make([]domain.Position, 0, len(positions)),
		OpenOrders:        make([]domain.OpenOrder, 0, len(orders)),
	}

	for _, b := range balances {
		if b.QuoteToken == "" {
			continue
		}
		total, err := numeric.Parse(b.TotalBalance)
		if err != nil {
			return domain.AccountState{}, fmt.Errorf("account.Refresh: balance %s: %w", b.QuoteToken, err)
		}
		available, err := numeric.Parse(b.AvailableBalance)
		if err != nil {
			return domain.AccountState{}, fmt.Errorf("account.Refresh: balance %s: %w", b.QuoteToken, err)
		}
		state.TotalBalances[b.QuoteToken] = total
		state.AvailableBalances[b.QuoteToken] = available
	}

	for _, p := range positions {
		pos, ok, err := mapPosition(p)
		if err != nil {
			return domain.AccountState{}, fmt.Errorf("account.Refresh: %w", err)
		}
		if ok {
			state.Positions = append(state.Positions, pos)
		}
	}

	for _, o := range orders {
		order, ok, err := mapOrder(o)
		if err != nil {
			return domain.AccountState{}, fmt.Errorf("account.Refresh: %w", err)
		}
		if ok {
			state.OpenOrders = append(state.OpenOrders, order)
		}
	}

	slog.Debug("account refreshed",
		"balances", len(state.AvailableBalances),
		"positions", len(state.Positions),
		"open_orders", len(state.OpenOrders),
	)
	return state, nil
}

func mapPosition(r ports.PositionRecord) (domain.Position, bool, error) {
	if r.TokenID == "" {
		return domain.Position{}, false, nil
	}
	shares, err := numeric.Parse(r.SharesOwned)
	if err != nil {
		return domain.Position{}, false, fmt.Errorf("position %s shares: %w", r.TokenID, err)
	}

	var avg decimal.NullDecimal
	if r.AvgPrice != "" {
		v, err := numeric.Parse(r.AvgPrice)
		if err != nil {
			return domain.Position{}, false, fmt.Errorf("position %s avg price: %w", r.TokenID, err)
		}
		avg = decimal.NewNullDecimal(v)
	}

	return domain.Position{
		MarketID:     r.MarketID,
		TokenID:      r.TokenID,
		OutcomeSide:  r.OutcomeSide,
		Shares:       shares,
		AveragePrice: avg,
	}, true, nil
}

func mapOrder(r ports.OrderRecord) (domain.OpenOrder, bool, error) {
	if r.TokenID == "" {
		return domain.OpenOrder{}, false, nil
	}
	price, err := numeric.Parse(r.Price)
	if err != nil {
		return domain.OpenOrder{}, false, fmt.Errorf("order %s price: %w", r.OrderID, err)
	}
	remaining, err := numeric.Parse(r.MakerAmount)
	if err != nil {
		return domain.OpenOrder{}, false, fmt.Errorf("order %s remaining: %w", r.OrderID, err)
	}
	return domain.OpenOrder{
		OrderID:   r.OrderID,
		MarketID:  r.MarketID,
		TokenID:   r.TokenID,
		Side:      domain.NormalizeSide(r.Side),
		Price:     price,
		Remaining: remaining,
	}, true, nil
}
