package strategy

import (
	"log/slog"
	"strings"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/numeric"
	"github.com/shopspring/decimal"
)

// CandidateBuilder turns ranked tokens into buy candidates at the best bid.
type CandidateBuilder struct {
	quoteAmount decimal.Decimal
}

// NewCandidateBuilder creates a builder spending quoteAmount per order.
func NewCandidateBuilder(quoteAmount decimal.Decimal) *CandidateBuilder {
	return &CandidateBuilder{quoteAmount: quoteAmount}
}

// BuildBuyCandidates returns one candidate per eligible token. Tokens that
// already have a resting buy order or a non-empty position are skipped, as
// are tokens whose base amount truncates to zero.
func (b *CandidateBuilder) BuildBuyCandidates(metrics []domain.TokenMetrics, account domain.AccountState) []domain.OrderCandidate {
	if !b.quoteAmount.IsPositive() {
		return nil
	}

	held := make(map[string]bool, len(account.Positions)+len(account.OpenOrders))
	for _, o := range account.OpenOrders {
		if domain.NormalizeSide(string(o.Side)) == domain.SideBuy {
			held[strings.ToLower(o.TokenID)] = true
		}
	}
	for _, p := range account.Positions {
		if p.Shares.IsPositive() {
			held[strings.ToLower(p.TokenID)] = true
		}
	}

	var out []domain.OrderCandidate
	for _, m := range metrics {
		if held[strings.ToLower(m.TokenID)] {
			continue
		}
		if m.BestBid == nil || m.BestAsk == nil || !m.BestBid.Price.IsPositive() {
			continue
		}

		base := numeric.QuantizeDown4(b.quoteAmount.Div(m.BestBid.Price))
		if !base.IsPositive() {
			slog.Debug("candidate dropped: size truncates to zero",
				"token_id", m.TokenID,
				"bid", m.BestBid.Price.String(),
			)
			continue
		}

		out = append(out, domain.OrderCandidate{
			MarketID:    m.MarketID,
			TokenID:     m.TokenID,
			Side:        domain.SideBuy,
			Price:       m.BestBid.Price,
			QuoteAmount: b.quoteAmount,
			BaseAmount:  base,
		})
	}
	return out
}
