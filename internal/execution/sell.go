package execution

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/shopspring/decimal"
)

// SellSummary cuenta lo que hizo una pasada de auto-sell.
type SellSummary struct {
	Considered int
	Blocked    int
	Failed     int
	Success    int
}

// Counts returns the summary under its metric names.
func (s SellSummary) Counts() map[string]float64 {
	return map[string]float64{
		"sell_orders_considered": float64(s.Considered),
		"sell_orders_blocked":    float64(s.Blocked),
		"sell_orders_failed":     float64(s.Failed),
		"sell_orders_success":    float64(s.Success),
	}
}

// SellOrderManager places sells at the best ask for any position share
// not already covered by resting sell orders.
type SellOrderManager struct {
	books     ports.OrderbookSource
	executor  *Executor
	threshold decimal.Decimal
}

// NewSellOrderManager crea el manager; threshold es el mínimo de shares
// descubiertas para colocar una venta.
func NewSellOrderManager(books ports.OrderbookSource, executor *Executor, threshold decimal.Decimal) *SellOrderManager {
	return &SellOrderManager{books: books, executor: executor, threshold: threshold}
}

// Manage runs one auto-sell pass over the account snapshot.
// Only lifecycle errors from the risk manager are returned.
func (m *SellOrderManager) Manage(ctx context.Context, account domain.AccountState) (SellSummary, error) {
	var summary SellSummary

	resting := make(map[int64]decimal.Decimal)
	for _, o := range account.OpenOrders {
		if domain.NormalizeSide(string(o.Side)) != domain.SideSell {
			continue
		}
		resting[o.MarketID] = resting[o.MarketID].Add(o.Remaining)
	}

	for _, p := range account.Positions {
		diff := p.Shares.Sub(resting[p.MarketID])
		if diff.LessThanOrEqual(m.threshold) {
			continue
		}
		summary.Considered++

		ask, ok := m.bestAsk(ctx, p)
		if !ok {
			summary.Failed++
			continue
		}

		c := domain.OrderCandidate{
			MarketID:    p.MarketID,
			TokenID:     p.TokenID,
			Side:        domain.SideSell,
			Price:       ask,
			QuoteAmount: ask.Mul(diff),
			BaseAmount:  diff,
		}

		out, err := m.executor.sell(ctx, c)
		if err != nil {
			return summary, err
		}
		switch out {
		case OutcomePlaced:
			summary.Success++
		case OutcomeBlocked:
			summary.Blocked++
		default:
			summary.Failed++
		}
	}

	slog.Info("sell pass complete",
		"considered", summary.Considered,
		"blocked", summary.Blocked,
		"failed", summary.Failed,
		"success", summary.Success,
	)
	return summary, nil
}

func (m *SellOrderManager) bestAsk(ctx context.Context, p domain.Position) (decimal.Decimal, bool) {
	rec, err := m.books.FetchOrderbook(ctx, p.TokenID)
	if err != nil {
		slog.Error("sell orderbook fetch failed", "market_id", p.MarketID, "token_id", p.TokenID, "err", err)
		return decimal.Zero, false
	}
	book, err := rec.Book()
	if err != nil {
		slog.Error("sell orderbook parse failed", "token_id", p.TokenID, "err", err)
		return decimal.Zero, false
	}
	ask, ok := book.BestAsk()
	if !ok {
		slog.Warn("no asks for position", "market_id", p.MarketID, "token_id", p.TokenID)
		return decimal.Zero, false
	}
	return ask.Price, true
}
