package opinion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/spreadbot/internal/domain"
)

// ErrReadOnly se devuelve al intentar operar sin credenciales de firma.
var ErrReadOnly = errors.New("opinion: client has no signing credentials")

const orderTypeLimit = "LIMIT"

// PlaceLimitOrder firma y envía una orden límite. Exige exactamente un importe.
func (c *Client) PlaceLimitOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	if !req.HasSingleAmount() {
		return domain.PlacedOrder{}, errors.New("opinion.PlaceLimitOrder: exactly one of amount_in_quote or amount_in_base must be provided")
	}
	if c.signer == nil {
		return domain.PlacedOrder{}, fmt.Errorf("opinion.PlaceLimitOrder: %w", ErrReadOnly)
	}

	order, err := c.signer.SignOrder(req)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("opinion.PlaceLimitOrder: %w", err)
	}

	body := placeOrderBody{
		MarketID:      req.MarketID,
		TokenID:       req.TokenID,
		Side:          strings.ToUpper(string(domain.NormalizeSide(string(req.Side)))),
		OrderType:     orderTypeLimit,
		Price:         req.Price,
		AmountInQuote: req.AmountInQuote,
		AmountInBase:  req.AmountInBase,
		Order:         order,
	}

	var res dataResult[placedOrderDTO]
	if err := c.post(ctx, c.tradeBreaker, c.tradeLimiter, "/openapi/order", body, &res); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("opinion.PlaceLimitOrder: %w", err)
	}

	slog.Debug("order placed",
		"order_id", res.Data.OrderID,
		"market_id", req.MarketID,
		"side", req.Side,
		"price", req.Price,
	)
	return domain.PlacedOrder{OrderID: res.Data.OrderID, Status: res.Data.Status}, nil
}

// CancelOrder cancela una orden abierta.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if c.signer == nil {
		return fmt.Errorf("opinion.CancelOrder: %w", ErrReadOnly)
	}
	if err := c.post(ctx, c.tradeBreaker, c.tradeLimiter, "/openapi/order/cancel", cancelOrderBody{OrderID: orderID}, nil); err != nil {
		return fmt.Errorf("opinion.CancelOrder %s: %w", orderID, err)
	}
	return nil
}
