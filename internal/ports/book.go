package ports

import (
	"fmt"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
)

// Book parses the raw levels into a typed order book, keeping the exchange's
// ordering.
func (r OrderbookRecord) Book() (domain.OrderBook, error) {
	bids, err := parseLevels(r.Bids)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("book %s bids: %w", r.TokenID, err)
	}
	asks, err := parseLevels(r.Asks)
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("book %s asks: %w", r.TokenID, err)
	}
	return domain.OrderBook{TokenID: r.TokenID, Bids: bids, Asks: asks}, nil
}

func parseLevels(raw []LevelRecord) ([]domain.OrderbookLevel, error) {
	levels := make([]domain.OrderbookLevel, 0, len(raw))
	for _, l := range raw {
		price, err := numeric.Parse(l.Price)
		if err != nil {
			return nil, err
		}
		size, err := numeric.Parse(l.Size)
		if err != nil {
			return nil, err
		}
		levels = append(levels, domain.OrderbookLevel{Price: price, Size: size})
	}
	return levels, nil
}
