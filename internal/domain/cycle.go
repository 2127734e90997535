package domain

import (
	"sort"
	"time"
)

// CycleSummary describes one finished scheduler cycle.
type CycleSummary struct {
	ID        string // UUID
	Index     int
	StartedAt time.Time
	Duration  time.Duration
	Counts    map[string]float64
	Err       string
}

// Failed reports whether the cycle ended with an error.
func (s CycleSummary) Failed() bool {
	return s.Err != ""
}

// CountKeys returns the counter names sorted for stable output.
func (s CycleSummary) CountKeys() []string {
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JournalOrder is an order accepted by the exchange, as recorded in the journal.
type JournalOrder struct {
	OrderID     string
	CycleID     string
	MarketID    int64
	TokenID     string
	Side        Side
	Price       string
	QuoteAmount string
	BaseAmount  string
	PlacedAt    time.Time
}
