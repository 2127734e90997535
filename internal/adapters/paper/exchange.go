package paper

// exchange.go: exchange simulado para el modo dry-run.
//
// Las lecturas van al exchange real. Las órdenes no salen: se guardan en
// memoria como órdenes abiertas y el quote que reservan las compras se
// descuenta del saldo disponible, así el ciclo siguiente ve su efecto.
// No se simulan fills.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusPaper es el estado que devuelve PlaceLimitOrder en dry-run.
const StatusPaper = "paper"

// ErrUnknownOrder se devuelve al cancelar una orden que no es paper.
var ErrUnknownOrder = errors.New("paper: unknown order")

type paperOrder struct {
	record   ports.OrderRecord
	reserved decimal.Decimal // quote reservado (solo compras)
}

// Exchange implementa ports.Exchange sobre un exchange real de solo lectura.
type Exchange struct {
	upstream   ports.Exchange
	quoteToken string

	mu     sync.Mutex
	orders map[string]paperOrder
	seq    []string // orden de inserción
}

// New envuelve upstream. quoteToken es el token cuyo saldo reservan las compras.
func New(upstream ports.Exchange, quoteToken string) *Exchange {
	return &Exchange{
		upstream:   upstream,
		quoteToken: quoteToken,
		orders:     make(map[string]paperOrder),
	}
}

func (e *Exchange) FetchActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	return e.upstream.FetchActiveMarkets(ctx)
}

func (e *Exchange) FetchOrderbook(ctx context.Context, tokenID string) (ports.OrderbookRecord, error) {
	return e.upstream.FetchOrderbook(ctx, tokenID)
}

func (e *Exchange) FetchPositions(ctx context.Context) ([]ports.PositionRecord, error) {
	return e.upstream.FetchPositions(ctx)
}

// FetchOpenOrders añade las órdenes paper a las reales.
func (e *Exchange) FetchOpenOrders(ctx context.Context) ([]ports.OrderRecord, error) {
	upstream, err := e.upstream.FetchOpenOrders(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ports.OrderRecord, 0, len(upstream)+len(e.seq))
	out = append(out, upstream...)
	for _, id := range e.seq {
		out = append(out, e.orders[id].record)
	}
	return out, nil
}

// FetchBalances descuenta del disponible el quote reservado por compras paper.
func (e *Exchange) FetchBalances(ctx context.Context) ([]ports.BalanceRecord, error) {
	balances, err := e.upstream.FetchBalances(ctx)
	if err != nil {
		return nil, err
	}
	reserved := e.Reserved()
	if reserved.IsZero() {
		return balances, nil
	}
	out := make([]ports.BalanceRecord, len(balances))
	copy(out, balances)
	for i, b := range out {
		if b.QuoteToken != e.quoteToken {
			continue
		}
		avail, err := numeric.Parse(b.AvailableBalance)
		if err != nil {
			// se deja tal cual; account.Refresh reportará el error
			continue
		}
		out[i].AvailableBalance = numeric.Format(decimal.Max(avail.Sub(reserved), decimal.Zero))
	}
	return out, nil
}

// PlaceLimitOrder valida la petición y registra la orden sin enviarla.
func (e *Exchange) PlaceLimitOrder(_ context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	if !req.HasSingleAmount() {
		return domain.PlacedOrder{}, errors.New("paper.PlaceLimitOrder: exactly one of amount_in_quote or amount_in_base must be provided")
	}
	price, err := numeric.Parse(req.Price)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("paper.PlaceLimitOrder: price: %w", err)
	}

	side := domain.NormalizeSide(string(req.Side))
	var remaining, reserved decimal.Decimal
	switch {
	case req.AmountInQuote != "":
		quote, err := numeric.Parse(req.AmountInQuote)
		if err != nil {
			return domain.PlacedOrder{}, fmt.Errorf("paper.PlaceLimitOrder: amount_in_quote: %w", err)
		}
		remaining = quote
		if side == domain.SideBuy {
			reserved = quote
		}
	default:
		base, err := numeric.Parse(req.AmountInBase)
		if err != nil {
			return domain.PlacedOrder{}, fmt.Errorf("paper.PlaceLimitOrder: amount_in_base: %w", err)
		}
		remaining = base
		if side == domain.SideBuy {
			reserved = base.Mul(price)
		}
	}

	id := "paper-" + uuid.NewString()
	e.mu.Lock()
	e.orders[id] = paperOrder{
		record: ports.OrderRecord{
			OrderID:     id,
			MarketID:    req.MarketID,
			TokenID:     req.TokenID,
			Side:        string(side),
			Price:       req.Price,
			MakerAmount: numeric.Format(remaining),
		},
		reserved: reserved,
	}
	e.seq = append(e.seq, id)
	e.mu.Unlock()

	slog.Info("paper order",
		"order_id", id,
		"market_id", req.MarketID,
		"token_id", req.TokenID,
		"side", side,
		"price", req.Price,
		"quote", req.AmountInQuote,
		"base", req.AmountInBase,
	)
	return domain.PlacedOrder{OrderID: id, Status: StatusPaper}, nil
}

// CancelOrder elimina una orden paper. Las órdenes reales no se tocan.
func (e *Exchange) CancelOrder(_ context.Context, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.orders[orderID]; !ok {
		slog.Info("paper cancel skipped", "order_id", orderID)
		return fmt.Errorf("paper.CancelOrder %s: %w", orderID, ErrUnknownOrder)
	}
	delete(e.orders, orderID)
	for i, id := range e.seq {
		if id == orderID {
			e.seq = append(e.seq[:i], e.seq[i+1:]...)
			break
		}
	}
	slog.Info("paper order cancelled", "order_id", orderID)
	return nil
}

// Reserved devuelve el quote total reservado por compras paper abiertas.
func (e *Exchange) Reserved() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, o := range e.orders {
		total = total.Add(o.reserved)
	}
	return total
}

// Orders devuelve las órdenes paper abiertas en orden de alta.
func (e *Exchange) Orders() []ports.OrderRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ports.OrderRecord, 0, len(e.seq))
	for _, id := range e.seq {
		out = append(out, e.orders[id].record)
	}
	return out
}
