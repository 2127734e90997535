// Package risk gates every order candidate against balance, exposure and
// duplicate-order limits before it reaches the exchange.
//
// The Manager is a two-step state machine: Evaluate is pure and returns a
// Decision carrying projected aggregates; Commit applies them once the
// exchange has accepted the order. Aggregates are rebuilt from an account
// snapshot on every Reset, cooldown history is not.
package risk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotReady is returned by Evaluate before the first Reset.
var ErrNotReady = errors.New("risk manager not initialised: call Reset first")

// Config holds the risk thresholds.
type Config struct {
	MaxTotalPosition     decimal.Decimal
	MaxPositionPerMarket decimal.Decimal
	MinAvailableBalance  decimal.Decimal
	DuplicateCooldown    time.Duration
	QuoteToken           string
}

// DefaultConfig mirrors the default config file values.
func DefaultConfig() Config {
	return Config{
		MaxTotalPosition:     decimal.NewFromInt(1000),
		MaxPositionPerMarket: decimal.NewFromInt(200),
		MinAvailableBalance:  decimal.NewFromInt(20),
		DuplicateCooldown:    60 * time.Second,
		QuoteToken:           "USDT",
	}
}

// Decision is an approved candidate plus the aggregates that Commit applies.
type Decision struct {
	Candidate              domain.OrderCandidate
	ProjectedAvailable     decimal.Decimal
	ProjectedTotalPosition decimal.Decimal
	ProjectedMarket        decimal.Decimal
	DuplicateKey           string
	EvaluatedAt            time.Time
}

// Manager tracks available quote, exposure and recent order keys.
// Not safe for concurrent use; the scheduler owns it.
type Manager struct {
	cfg   Config
	clock func() time.Time

	ready          bool
	availableQuote decimal.Decimal
	totalPosition  decimal.Decimal
	marketPosition map[int64]decimal.Decimal
	lastOrderAt    map[string]time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for cooldowns.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager creates an uninitialised Manager.
func NewManager(cfg Config, opts ...Option) *Manager {
	if cfg.QuoteToken == "" {
		cfg.QuoteToken = "USDT"
	}
	m := &Manager{
		cfg:            cfg,
		clock:          time.Now,
		marketPosition: make(map[int64]decimal.Decimal),
		lastOrderAt:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset rebuilds the aggregates from an account snapshot.
func (m *Manager) Reset(account domain.AccountState) {
	m.availableQuote = account.Available(m.cfg.QuoteToken)
	m.totalPosition = decimal.Zero
	m.marketPosition = make(map[int64]decimal.Decimal)
	for _, p := range account.Positions {
		m.totalPosition = m.totalPosition.Add(p.Shares)
		m.marketPosition[p.MarketID] = m.marketPosition[p.MarketID].Add(p.Shares)
	}
	m.ready = true
}

// Evaluate checks a candidate against the current limits without changing
// any state. It returns a *Violation for rejected candidates and ErrNotReady
// when called before Reset.
func (m *Manager) Evaluate(c domain.OrderCandidate) (Decision, error) {
	if !m.ready {
		return Decision{}, ErrNotReady
	}

	now := m.clock()
	key := duplicateKey(c)
	if last, ok := m.lastOrderAt[key]; ok && now.Sub(last) < m.cfg.DuplicateCooldown {
		return Decision{}, violation(ReasonDuplicateOrder, "order %s placed %s ago", key, now.Sub(last).Round(time.Millisecond))
	}

	marketPos := m.marketPosition[c.MarketID]
	d := Decision{
		Candidate:    c,
		DuplicateKey: key,
		EvaluatedAt:  now,
	}

	switch domain.NormalizeSide(string(c.Side)) {
	case domain.SideBuy:
		if !c.QuoteAmount.IsPositive() {
			return Decision{}, violation(ReasonInvalidQuoteAmount, "quote amount %s must be positive", c.QuoteAmount)
		}
		if c.QuoteAmount.GreaterThan(m.availableQuote) {
			return Decision{}, violation(ReasonInsufficientBalance, "quote %s exceeds available %s", c.QuoteAmount, m.availableQuote)
		}
		remaining := m.availableQuote.Sub(c.QuoteAmount)
		if remaining.LessThan(m.cfg.MinAvailableBalance) {
			return Decision{}, violation(ReasonMinBalance, "remaining %s below minimum %s", remaining, m.cfg.MinAvailableBalance)
		}
		total := m.totalPosition.Add(c.BaseAmount)
		if total.GreaterThan(m.cfg.MaxTotalPosition) {
			return Decision{}, violation(ReasonTotalPositionLimit, "total position %s exceeds %s", total, m.cfg.MaxTotalPosition)
		}
		market := marketPos.Add(c.BaseAmount)
		if market.GreaterThan(m.cfg.MaxPositionPerMarket) {
			return Decision{}, violation(ReasonMarketPositionLimit, "market %d position %s exceeds %s", c.MarketID, market, m.cfg.MaxPositionPerMarket)
		}
		d.ProjectedAvailable = remaining
		d.ProjectedTotalPosition = total
		d.ProjectedMarket = market

	case domain.SideSell:
		if c.BaseAmount.GreaterThan(m.totalPosition) {
			return Decision{}, violation(ReasonSellExceedsTotal, "sell %s exceeds total position %s", c.BaseAmount, m.totalPosition)
		}
		if c.BaseAmount.GreaterThan(marketPos) {
			return Decision{}, violation(ReasonSellExceedsMarket, "sell %s exceeds market %d position %s", c.BaseAmount, c.MarketID, marketPos)
		}
		d.ProjectedAvailable = m.availableQuote
		d.ProjectedTotalPosition = m.totalPosition.Sub(c.BaseAmount)
		d.ProjectedMarket = marketPos.Sub(c.BaseAmount)

	default:
		return Decision{}, violation(ReasonUnsupportedSide, "unsupported side %q", c.Side)
	}

	return d, nil
}

// Commit applies an approved decision. Call it only after the exchange has
// accepted the order.
func (m *Manager) Commit(d Decision) {
	m.availableQuote = d.ProjectedAvailable
	m.totalPosition = d.ProjectedTotalPosition
	if d.ProjectedMarket.IsPositive() {
		m.marketPosition[d.Candidate.MarketID] = d.ProjectedMarket
	} else {
		delete(m.marketPosition, d.Candidate.MarketID)
	}
	m.lastOrderAt[d.DuplicateKey] = d.EvaluatedAt
}

// Ready reports whether Reset has been called.
func (m *Manager) Ready() bool { return m.ready }

// AvailableQuote returns the tracked available quote balance.
func (m *Manager) AvailableQuote() decimal.Decimal { return m.availableQuote }

// TotalPosition returns the tracked total position in shares.
func (m *Manager) TotalPosition() decimal.Decimal { return m.totalPosition }

// MarketPosition returns the tracked position for one market, zero if none.
func (m *Manager) MarketPosition(marketID int64) decimal.Decimal {
	return m.marketPosition[marketID]
}

func duplicateKey(c domain.OrderCandidate) string {
	return strings.ToLower(strings.Join([]string{
		strconv.FormatInt(c.MarketID, 10),
		c.TokenID,
		string(c.Side),
		c.Price.String(),
	}, ":"))
}

func violation(reason Reason, format string, args ...any) *Violation {
	return &Violation{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
