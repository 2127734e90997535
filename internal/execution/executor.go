// Package execution submits risk-approved orders to the exchange and keeps
// sell orders resting against every open position.
package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/alejandrodnm/spreadbot/internal/risk"
)

// Executor runs the evaluate, place, commit sequence for one candidate.
type Executor struct {
	placer  ports.OrderPlacer
	risk    *risk.Manager
	journal ports.Journal
	cycleID string
	now     func() time.Time
}

// NewExecutor creates an Executor. journal may be nil.
func NewExecutor(placer ports.OrderPlacer, rm *risk.Manager, journal ports.Journal) *Executor {
	return &Executor{placer: placer, risk: rm, journal: journal, now: time.Now}
}

// SetCycle tags journal entries written from now on with the cycle id.
func (e *Executor) SetCycle(id string) { e.cycleID = id }

// Outcome is the result of one submission attempt.
type Outcome int

const (
	OutcomePlaced Outcome = iota
	OutcomeBlocked
	OutcomeFailed
)

// SubmitBuy places a buy sized in quote currency.
func (e *Executor) SubmitBuy(ctx context.Context, c domain.OrderCandidate) (bool, error) {
	out, err := e.buy(ctx, c)
	return out == OutcomePlaced, err
}

// SubmitSell places a sell sized in shares.
func (e *Executor) SubmitSell(ctx context.Context, c domain.OrderCandidate) (bool, error) {
	out, err := e.sell(ctx, c)
	return out == OutcomePlaced, err
}

func (e *Executor) buy(ctx context.Context, c domain.OrderCandidate) (Outcome, error) {
	return e.submit(ctx, c, domain.PlaceOrderRequest{AmountInQuote: numeric.Format(c.QuoteAmount)})
}

func (e *Executor) sell(ctx context.Context, c domain.OrderCandidate) (Outcome, error) {
	return e.submit(ctx, c, domain.PlaceOrderRequest{AmountInBase: numeric.Format(c.BaseAmount)})
}

// submit never reports violations or exchange failures as errors. A non-nil
// error means the risk manager is misused and the caller must stop.
func (e *Executor) submit(ctx context.Context, c domain.OrderCandidate, req domain.PlaceOrderRequest) (Outcome, error) {
	decision, err := e.risk.Evaluate(c)
	if err != nil {
		if v, ok := risk.AsViolation(err); ok {
			slog.Info("order blocked by risk",
				"market_id", c.MarketID,
				"token_id", c.TokenID,
				"side", c.Side,
				"price", c.Price.String(),
				"reason", v.Reason,
				"detail", v.Detail,
			)
			return OutcomeBlocked, nil
		}
		return OutcomeFailed, err
	}

	req.MarketID = c.MarketID
	req.TokenID = c.TokenID
	req.Side = c.Side
	req.Price = c.Price.String()

	placed, err := e.placer.PlaceLimitOrder(ctx, req)
	if err != nil {
		slog.Error("order placement failed",
			"market_id", c.MarketID,
			"token_id", c.TokenID,
			"side", c.Side,
			"price", req.Price,
			"err", err,
		)
		return OutcomeFailed, nil
	}

	e.risk.Commit(decision)
	slog.Info("order placed",
		"order_id", placed.OrderID,
		"status", placed.Status,
		"market_id", c.MarketID,
		"token_id", c.TokenID,
		"side", c.Side,
		"price", req.Price,
		"quote", req.AmountInQuote,
		"base", req.AmountInBase,
	)

	e.record(ctx, c, placed)
	return OutcomePlaced, nil
}

func (e *Executor) record(ctx context.Context, c domain.OrderCandidate, placed domain.PlacedOrder) {
	if e.journal == nil {
		return
	}
	entry := domain.JournalOrder{
		OrderID:     placed.OrderID,
		CycleID:     e.cycleID,
		MarketID:    c.MarketID,
		TokenID:     c.TokenID,
		Side:        c.Side,
		Price:       c.Price.String(),
		QuoteAmount: numeric.Format(c.QuoteAmount),
		BaseAmount:  numeric.Format(c.BaseAmount),
		PlacedAt:    e.now().UTC(),
	}
	if err := e.journal.SaveOrder(ctx, entry); err != nil {
		slog.Warn("journal order failed", "order_id", placed.OrderID, "err", err)
	}
}
