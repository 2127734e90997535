// Package strategy scores outcome tokens by spread and turns the best ones
// into buy candidates.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/shopspring/decimal"
)

// Config contiene los umbrales de selección y el tamaño de cada orden.
type Config struct {
	TopNTokens       int
	MinLiquidity     decimal.Decimal
	MaxSpread        decimal.Decimal
	MinPrice         decimal.Decimal
	MaxPrice         decimal.Decimal
	OrderQuoteAmount decimal.Decimal
}

// SpreadAnalyzer ranks outcome tokens by their top-of-book spread.
type SpreadAnalyzer struct {
	books ports.OrderbookSource
	cfg   Config
}

// NewSpreadAnalyzer crea un analyzer que lee books de src.
func NewSpreadAnalyzer(src ports.OrderbookSource, cfg Config) *SpreadAnalyzer {
	return &SpreadAnalyzer{books: src, cfg: cfg}
}

// SelectTopTokens fetches the yes and no books of every market and returns
// the best TopNTokens two-sided tokens inside the liquidity, spread and price
// band, tightest spread first. An orderbook RPC failure aborts the selection.
func (a *SpreadAnalyzer) SelectTopTokens(ctx context.Context, markets []domain.Market) ([]domain.TokenMetrics, error) {
	var all []domain.TokenMetrics
	for _, m := range markets {
		metrics, err := a.MarketMetrics(ctx, m)
		if err != nil {
			return nil, err
		}
		all = append(all, metrics...)
	}

	selected := a.Rank(all)
	slog.Debug("spread analysis complete",
		"markets", len(markets),
		"tokens", len(all),
		"selected", len(selected),
	)
	return selected, nil
}

// MarketMetrics computes metrics for each outcome token of a market.
func (a *SpreadAnalyzer) MarketMetrics(ctx context.Context, m domain.Market) ([]domain.TokenMetrics, error) {
	tokens := m.Tokens()
	out := make([]domain.TokenMetrics, 0, len(tokens))
	for _, tok := range tokens {
		rec, err := a.books.FetchOrderbook(ctx, tok.TokenID)
		if err != nil {
			return nil, fmt.Errorf("strategy.MarketMetrics: market %d token %s: %w", m.ID, tok.TokenID, err)
		}
		book, err := rec.Book()
		if err != nil {
			return nil, fmt.Errorf("strategy.MarketMetrics: market %d: %w", m.ID, err)
		}
		if book.TokenID == "" {
			book.TokenID = tok.TokenID
		}
		out = append(out, domain.NewTokenMetrics(book, m.ID, tok.Side))
	}
	return out, nil
}

// Rank applies the filters and ordering to already computed metrics.
func (a *SpreadAnalyzer) Rank(metrics []domain.TokenMetrics) []domain.TokenMetrics {
	filtered := make([]domain.TokenMetrics, 0, len(metrics))
	for _, m := range metrics {
		if a.passes(m) {
			filtered = append(filtered, m)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		si, sj := *filtered[i].Spread, *filtered[j].Spread
		if !si.Equal(sj) {
			return si.LessThan(sj)
		}
		return filtered[i].Liquidity.GreaterThan(filtered[j].Liquidity)
	})

	if a.cfg.TopNTokens >= 0 && len(filtered) > a.cfg.TopNTokens {
		filtered = filtered[:a.cfg.TopNTokens]
	}
	return filtered
}

func (a *SpreadAnalyzer) passes(m domain.TokenMetrics) bool {
	if !m.TwoSided() || m.Spread == nil {
		return false
	}
	if m.Liquidity.LessThan(a.cfg.MinLiquidity) {
		return false
	}
	if m.Spread.GreaterThan(a.cfg.MaxSpread) {
		return false
	}
	mid := m.Mid()
	return !mid.LessThan(a.cfg.MinPrice) && !mid.GreaterThan(a.cfg.MaxPrice)
}
