package opinion

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/spreadbot/internal/ports"
)

// FetchPositions devuelve las posiciones del usuario (una sola página de 100).
func (c *Client) FetchPositions(ctx context.Context) ([]ports.PositionRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(accountPageLimit))

	var res listResult[positionDTO]
	if err := c.get(ctx, c.readBreaker, c.readLimiter, "/openapi/positions", q, &res); err != nil {
		return nil, fmt.Errorf("opinion.FetchPositions: %w", err)
	}
	out := make([]ports.PositionRecord, 0, len(res.List))
	for _, p := range res.List {
		out = append(out, toPositionRecord(p))
	}
	return out, nil
}

// FetchOpenOrders devuelve solo las órdenes en estado open.
func (c *Client) FetchOpenOrders(ctx context.Context) ([]ports.OrderRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(accountPageLimit))
	q.Set("status", "open")

	var res listResult[orderDTO]
	if err := c.get(ctx, c.readBreaker, c.readLimiter, "/openapi/orders", q, &res); err != nil {
		return nil, fmt.Errorf("opinion.FetchOpenOrders: %w", err)
	}
	out := make([]ports.OrderRecord, 0, len(res.List))
	for _, o := range res.List {
		out = append(out, toOrderRecord(o))
	}
	return out, nil
}

// FetchBalances devuelve los saldos por quote token.
func (c *Client) FetchBalances(ctx context.Context) ([]ports.BalanceRecord, error) {
	var res dataResult[balancesDTO]
	if err := c.get(ctx, c.readBreaker, c.readLimiter, "/openapi/user/balance", nil, &res); err != nil {
		return nil, fmt.Errorf("opinion.FetchBalances: %w", err)
	}
	out := make([]ports.BalanceRecord, 0, len(res.Data.Balances))
	for _, b := range res.Data.Balances {
		out = append(out, toBalanceRecord(b))
	}
	return out, nil
}
