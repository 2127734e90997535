// Package scheduler drives the trading cycle: refresh the account, buy,
// refresh again, manage sells, report, sleep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/alejandrodnm/spreadbot/config"
	"github.com/alejandrodnm/spreadbot/internal/account"
	"github.com/alejandrodnm/spreadbot/internal/domain"
	"github.com/alejandrodnm/spreadbot/internal/execution"
	"github.com/alejandrodnm/spreadbot/internal/monitoring"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/alejandrodnm/spreadbot/internal/risk"
	"github.com/alejandrodnm/spreadbot/internal/strategy"
	"github.com/google/uuid"
)

// Config contiene la configuración del loop.
type Config struct {
	PollInterval   time.Duration
	EnabledMarkets []int64
}

// Deps agrupa los componentes que el scheduler orquesta.
type Deps struct {
	Markets  ports.MarketSource
	Account  *account.Manager
	Risk     *risk.Manager
	Analyzer *strategy.SpreadAnalyzer
	Builder  *strategy.CandidateBuilder
	Executor *execution.Executor
	Sells    *execution.SellOrderManager
	Metrics  *monitoring.Recorder
	Journal  ports.Journal       // optional
	Reporter ports.CycleReporter // optional
}

// Scheduler es el orquestador del loop de trading. Un único goroutine lo
// ejecuta; no hay locks en los componentes que usa.
type Scheduler struct {
	cfg     Config
	deps    Deps
	enabled map[int64]bool
	state   domain.AccountState
	index   int
}

// New crea un Scheduler con todas las dependencias inyectadas.
func New(cfg Config, deps Deps) *Scheduler {
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewRecorder()
	}
	s := &Scheduler{cfg: cfg, deps: deps}
	if len(cfg.EnabledMarkets) > 0 {
		s.enabled = make(map[int64]bool, len(cfg.EnabledMarkets))
		for _, id := range cfg.EnabledMarkets {
			s.enabled[id] = true
		}
	}
	return s
}

// Run refreshes the account once, then loops cycles until ctx is cancelled.
// Cycle failures are logged and counted; only lifecycle and configuration
// errors stop the loop and are returned.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"poll_interval", s.cfg.PollInterval,
		"enabled_markets", len(s.enabled),
	)

	if err := s.startup(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			slog.Info("scheduler stopped")
			return nil
		}

		if _, err := s.Cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-time.After(s.cfg.PollInterval):
		}
	}
}

// RunOnce hace el refresh inicial y un único ciclo.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.CycleSummary, error) {
	if err := s.startup(ctx); err != nil {
		return domain.CycleSummary{}, err
	}
	return s.Cycle(ctx)
}

func (s *Scheduler) startup(ctx context.Context) error {
	state, err := s.deps.Account.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("scheduler.startup: %w", err)
	}
	s.state = state
	s.deps.Risk.Reset(state)
	logSnapshot("startup", state)
	return nil
}

// Cycle runs one contained cycle, publishes its summary and refreshes the
// account for the next one. The returned error is always fatal.
func (s *Scheduler) Cycle(ctx context.Context) (domain.CycleSummary, error) {
	s.index++
	summary := domain.CycleSummary{
		ID:        uuid.NewString(),
		Index:     s.index,
		StartedAt: time.Now().UTC(),
	}
	s.deps.Executor.SetCycle(summary.ID)

	counts, err := s.runCycle(ctx)
	summary.Duration = time.Since(summary.StartedAt)

	if err != nil {
		if IsFatal(err) {
			slog.Error("fatal cycle error", "cycle", s.index, "err", err)
			return summary, err
		}
		slog.Error("cycle error", "cycle", s.index, "cycle_id", summary.ID, "err", err)
		counts[monitoring.CycleErrors]++
		summary.Err = err.Error()
	}

	s.deps.Metrics.MergeCounts(counts)
	s.deps.Metrics.ObserveCycleDuration(summary.Duration)
	summary.Counts = counts

	slog.Info("cycle summary",
		"cycle", s.index,
		"duration", summary.Duration.Round(time.Millisecond),
		"metrics", s.deps.Metrics.Snapshot(),
	)
	s.publish(ctx, summary)

	state, err := s.deps.Account.Refresh(ctx)
	if err != nil {
		slog.Error("account refresh failed, keeping previous snapshot", "err", err)
		s.deps.Metrics.Increment(monitoring.CycleErrors, 1)
	} else {
		s.state = state
	}

	return summary, nil
}

// runCycle converts panics into errors so one bad cycle never kills the loop.
func (s *Scheduler) runCycle(ctx context.Context) (counts map[string]float64, err error) {
	counts = make(map[string]float64)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("scheduler.runCycle: panic: %v", r)
		}
	}()

	s.deps.Risk.Reset(s.state)
	logSnapshot(fmt.Sprintf("cycle_%d_start", s.index), s.state)

	buy, err := s.buyPass(ctx)
	mergeInto(counts, buy.Counts())
	if err != nil {
		return counts, err
	}

	state, err := s.deps.Account.Refresh(ctx)
	if err != nil {
		return counts, fmt.Errorf("scheduler.runCycle: %w", err)
	}
	s.state = state
	s.deps.Risk.Reset(state)

	sell, err := s.deps.Sells.Manage(ctx, state)
	mergeInto(counts, sell.Counts())
	if err != nil {
		return counts, fmt.Errorf("scheduler.runCycle: sell pass: %w", err)
	}
	return counts, nil
}

func (s *Scheduler) buyPass(ctx context.Context) (BuySummary, error) {
	var summary BuySummary

	markets, err := s.deps.Markets.FetchActiveMarkets(ctx)
	if err != nil {
		return summary, fmt.Errorf("scheduler.buyPass: fetch markets: %w", err)
	}
	markets = s.filterEnabled(markets)

	top, err := s.deps.Analyzer.SelectTopTokens(ctx, markets)
	if err != nil {
		return summary, fmt.Errorf("scheduler.buyPass: %w", err)
	}
	summary.MarketsConsidered = len(top)

	candidates := s.deps.Builder.BuildBuyCandidates(top, s.state)
	slog.Info("buy candidates prepared", "markets", len(markets), "count", len(candidates))

	for _, c := range candidates {
		summary.Attempted++
		ok, err := s.deps.Executor.SubmitBuy(ctx, c)
		if err != nil {
			return summary, fmt.Errorf("scheduler.buyPass: %w", err)
		}
		if ok {
			summary.Success++
		} else {
			summary.Failed++
		}
	}

	slog.Info("buy execution summary",
		"attempted", summary.Attempted,
		"success", summary.Success,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *Scheduler) filterEnabled(markets []domain.Market) []domain.Market {
	if s.enabled == nil {
		return markets
	}
	out := markets[:0:0]
	for _, m := range markets {
		if s.enabled[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func (s *Scheduler) publish(ctx context.Context, summary domain.CycleSummary) {
	if s.deps.Reporter != nil {
		if err := s.deps.Reporter.ReportCycle(ctx, summary); err != nil {
			slog.Warn("reporter error", "err", err)
		}
	}
	if s.deps.Journal != nil {
		if err := s.deps.Journal.SaveCycle(ctx, summary); err != nil {
			slog.Warn("journal cycle failed", "err", err)
		}
	}
}

// IsFatal reports whether err must stop the process.
func IsFatal(err error) bool {
	return errors.Is(err, risk.ErrNotReady) || errors.Is(err, config.ErrInvalid)
}

func logSnapshot(label string, state domain.AccountState) {
	balances := make(map[string]string, len(state.AvailableBalances))
	for token, v := range state.AvailableBalances {
		balances[token] = v.String()
	}
	slog.Info("account snapshot",
		"label", label,
		"positions", len(state.Positions),
		"total_position_shares", state.TotalShares().String(),
		"open_orders", len(state.OpenOrders),
		"available_balances", balances,
	)
}

func mergeInto(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] += v
	}
}
