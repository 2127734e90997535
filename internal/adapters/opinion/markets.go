package opinion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/ports"
)

// FetchActiveMarkets pagina /openapi/market de 20 en 20 hasta una página
// corta y se queda con los mercados en estado activado.
func (c *Client) FetchActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(marketPageLimit))

		var res listResult[marketDTO]
		if err := c.get(ctx, c.readBreaker, c.readLimiter, "/openapi/market", q, &res); err != nil {
			return nil, fmt.Errorf("opinion.FetchActiveMarkets: page %d: %w", page, err)
		}
		for _, m := range res.List {
			if m.Status != domain.MarketStatusActivated {
				continue
			}
			markets = append(markets, toMarket(m))
		}
		if len(res.List) < marketPageLimit {
			break
		}
	}
	slog.Debug("markets fetched", "active", len(markets))
	return markets, nil
}

// FetchOrderbook devuelve el libro de un outcome token.
func (c *Client) FetchOrderbook(ctx context.Context, tokenID string) (ports.OrderbookRecord, error) {
	q := url.Values{}
	q.Set("token_id", tokenID)

	var res dataResult[orderbookDTO]
	if err := c.get(ctx, c.readBreaker, c.bookLimiter, "/openapi/token/orderbook", q, &res); err != nil {
		return ports.OrderbookRecord{}, fmt.Errorf("opinion.FetchOrderbook %s: %w", tokenID, err)
	}
	return toOrderbookRecord(tokenID, res.Data), nil
}
