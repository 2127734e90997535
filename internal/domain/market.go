package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// MarketStatusActivated is the exchange status code of a tradable market.
const MarketStatusActivated = 2

// Market is a binary prediction market as listed by the exchange.
// It is a snapshot: the bot only uses it within the cycle that fetched it.
type Market struct {
	ID         int64
	Title      string
	Status     int
	YesTokenID string
	NoTokenID  string
	Volume     decimal.Decimal
	QuoteToken string
}

// OutcomeToken pairs a token id with its outcome side ("yes" / "no").
type OutcomeToken struct {
	TokenID string
	Side    string
}

// Tokens returns the market's non-empty outcome tokens, yes first.
func (m Market) Tokens() []OutcomeToken {
	tokens := make([]OutcomeToken, 0, 2)
	if m.YesTokenID != "" {
		tokens = append(tokens, OutcomeToken{TokenID: m.YesTokenID, Side: OutcomeYes})
	}
	if m.NoTokenID != "" {
		tokens = append(tokens, OutcomeToken{TokenID: m.NoTokenID, Side: OutcomeNo})
	}
	return tokens
}

const (
	OutcomeYes = "yes"
	OutcomeNo  = "no"
)

// TruncateTitle shortens a market title for log and console output.
// An empty title falls back to the market id.
func TruncateTitle(title string, id int64, maxLen int) string {
	q := title
	if q == "" {
		q = "market #" + strconv.FormatInt(id, 10)
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
