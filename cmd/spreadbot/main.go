package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/spreadbot/config"
	"github.com/alejandrodnm/spreadbot/internal/account"
	"github.com/alejandrodnm/spreadbot/internal/adapters/notify"
	"github.com/alejandrodnm/spreadbot/internal/adapters/opinion"
	"github.com/alejandrodnm/spreadbot/internal/adapters/paper"
	"github.com/alejandrodnm/spreadbot/internal/adapters/storage"
	"github.com/alejandrodnm/spreadbot/internal/execution"
	"github.com/alejandrodnm/spreadbot/internal/monitoring"
	"github.com/alejandrodnm/spreadbot/internal/ports"
	"github.com/alejandrodnm/spreadbot/internal/risk"
	"github.com/alejandrodnm/spreadbot/internal/scheduler"
	"github.com/alejandrodnm/spreadbot/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "simulate order placement (real market data, no orders sent)")
	once := flag.Bool("once", false, "run one cycle and exit")
	report := flag.Bool("report", false, "print recent cycles and orders from the journal and exit")
	cancelAll := flag.Bool("cancel", false, "cancel every open order and exit")
	table := flag.Bool("table", false, "print a counter table per cycle (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}
	closeLog := setupLogger(cfg.Logging)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *report {
		if err := runReport(ctx, cfg.Storage.JournalDSN, *table); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	trading := !*dryRun
	if err := cfg.Validate(trading); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	slog.Info("spreadbot starting",
		"config", *configPath,
		"poll_interval", cfg.PollInterval(),
		"dry_run", *dryRun,
		"once", *once,
		"enabled_markets", len(cfg.EnabledMarkets),
	)

	opts := opinion.Options{
		Host:    cfg.API.Host,
		APIKey:  cfg.API.APIKey,
		ChainID: cfg.API.ChainID,
	}
	if trading {
		opts.PrivateKey = cfg.API.PrivateKey
		opts.MultiSigAddr = cfg.API.MultiSigAddr
	}
	client, err := opinion.NewClient(opts)
	if err != nil {
		slog.Error("failed to create exchange client", "err", err)
		os.Exit(1)
	}

	var exchange ports.Exchange = client
	if *dryRun {
		exchange = paper.New(client, cfg.Risk.QuoteToken)
	} else if cfg.API.RPCURL != "" {
		if err := checkChain(ctx, cfg.API); err != nil {
			slog.Error("chain check failed", "err", err)
			os.Exit(1)
		}
	}

	if *cancelAll {
		if *dryRun {
			slog.Error("-cancel is not available in dry-run mode")
			os.Exit(1)
		}
		if err := runCancel(ctx, exchange); err != nil {
			slog.Error("cancel failed", "err", err)
			os.Exit(1)
		}
		return
	}

	var journal ports.Journal
	if cfg.Storage.JournalDSN != "" {
		store, err := storage.NewSQLiteJournal(cfg.Storage.JournalDSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.JournalDSN)
			os.Exit(1)
		}
		defer store.Close()
		journal = store
	}

	metrics := monitoring.NewRecorder()
	if cfg.Monitoring.EnableMetrics {
		go func() {
			if err := metrics.Serve(ctx, cfg.Monitoring.ListenAddr); err != nil {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
	}

	rm := risk.NewManager(risk.Config{
		MaxTotalPosition:     cfg.Risk.MaxTotalPosition,
		MaxPositionPerMarket: cfg.Risk.MaxPositionPerMarket,
		MinAvailableBalance:  cfg.Risk.MinAvailableBalance,
		DuplicateCooldown:    cfg.DuplicateCooldown(),
		QuoteToken:           cfg.Risk.QuoteToken,
	})
	executor := execution.NewExecutor(exchange, rm, journal)

	s := scheduler.New(
		scheduler.Config{
			PollInterval:   cfg.PollInterval(),
			EnabledMarkets: cfg.EnabledMarkets,
		},
		scheduler.Deps{
			Markets: exchange,
			Account: account.NewManager(exchange),
			Risk:    rm,
			Analyzer: strategy.NewSpreadAnalyzer(exchange, strategy.Config{
				TopNTokens:       cfg.Strategy.TopNTokens,
				MinLiquidity:     cfg.Strategy.MinLiquidity,
				MaxSpread:        cfg.Strategy.MaxSpread,
				MinPrice:         cfg.Strategy.MinPrice,
				MaxPrice:         cfg.Strategy.MaxPrice,
				OrderQuoteAmount: cfg.Strategy.OrderQuoteAmount,
			}),
			Builder:  strategy.NewCandidateBuilder(cfg.Strategy.OrderQuoteAmount),
			Executor: executor,
			Sells:    execution.NewSellOrderManager(exchange, executor, cfg.Risk.SellOrderThreshold),
			Metrics:  metrics,
			Journal:  journal,
			Reporter: notify.NewConsole(*table),
		},
	)

	if *once {
		summary, err := s.RunOnce(ctx)
		if err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		if summary.Failed() {
			os.Exit(1)
		}
		return
	}

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("scheduler exited with error", "err", err, "fatal", scheduler.IsFatal(err))
		os.Exit(1)
	}

	slog.Info("spreadbot stopped cleanly")
}
