package opinion

import (
	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/alejandrodnm/spreadbot/internal/ports"
)

// toMarket convierte el DTO al dominio. Un volume ilegible queda a cero:
// es informativo y nunca entra en la estrategia.
func toMarket(d marketDTO) domain.Market {
	vol, _ := numeric.Parse(string(d.Volume))
	return domain.Market{
		ID:         int64(d.MarketID),
		Title:      d.MarketTitle,
		Status:     d.Status,
		YesTokenID: d.YesTokenID,
		NoTokenID:  d.NoTokenID,
		Volume:     vol,
		QuoteToken: d.QuoteToken,
	}
}

// toOrderbookRecord conserva el orden del exchange; el parseo lo hace ports.
func toOrderbookRecord(tokenID string, d orderbookDTO) ports.OrderbookRecord {
	return ports.OrderbookRecord{
		TokenID: tokenID,
		Bids:    toLevels(d.Bids),
		Asks:    toLevels(d.Asks),
	}
}

func toLevels(in []levelDTO) []ports.LevelRecord {
	out := make([]ports.LevelRecord, 0, len(in))
	for _, l := range in {
		out = append(out, ports.LevelRecord{Price: string(l.Price), Size: string(l.Size)})
	}
	return out
}

func toPositionRecord(d positionDTO) ports.PositionRecord {
	return ports.PositionRecord{
		MarketID:    int64(d.MarketID),
		TokenID:     d.TokenID,
		OutcomeSide: d.OutcomeSide,
		SharesOwned: string(d.SharesOwned),
		AvgPrice:    string(d.AvgPrice),
	}
}

func toOrderRecord(d orderDTO) ports.OrderRecord {
	return ports.OrderRecord{
		OrderID:     d.OrderID,
		MarketID:    int64(d.MarketID),
		TokenID:     d.TokenID,
		Side:        d.Side,
		Price:       string(d.Price),
		MakerAmount: string(d.MakerAmount),
	}
}

func toBalanceRecord(d balanceDTO) ports.BalanceRecord {
	return ports.BalanceRecord{
		QuoteToken:       d.QuoteToken,
		TotalBalance:     string(d.TotalBalance),
		AvailableBalance: string(d.AvailableBalance),
	}
}
