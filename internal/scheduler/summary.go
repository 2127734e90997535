package scheduler

// BuySummary cuenta lo que hizo la pasada de compra de un ciclo.
type BuySummary struct {
	MarketsConsidered int
	Attempted         int
	Success           int
	Failed            int
}

// Counts returns the summary under its metric names.
func (s BuySummary) Counts() map[string]float64 {
	return map[string]float64{
		"buy_markets_considered": float64(s.MarketsConsidered),
		"buy_orders_attempted":   float64(s.Attempted),
		"buy_orders_success":     float64(s.Success),
		"buy_orders_failed":      float64(s.Failed),
	}
}
