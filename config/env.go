package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EnvKey builds the override variable name for a section field,
// e.g. EnvKey("risk", "max_total_position") = OPINION_SPREAD_RISK_MAX_TOTAL_POSITION.
func EnvKey(section, field string) string {
	return strings.ToUpper(EnvPrefix + "_" + section + "_" + field)
}

type override struct {
	section, field string
	apply          func(string) error
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	overrides := []override{
		{"api", "host", setString(&cfg.API.Host)},
		{"api", "api_key", setString(&cfg.API.APIKey)},
		{"api", "chain_id", setInt64(&cfg.API.ChainID)},
		{"api", "rpc_url", setString(&cfg.API.RPCURL)},
		{"api", "collateral_addr", setString(&cfg.API.CollateralAddr)},
		{"api", "private_key", setString(&cfg.API.PrivateKey)},
		{"api", "multi_sig_addr", setString(&cfg.API.MultiSigAddr)},

		{"strategy", "top_n_tokens", setInt(&cfg.Strategy.TopNTokens)},
		{"strategy", "min_liquidity", setDecimal(&cfg.Strategy.MinLiquidity)},
		{"strategy", "max_spread", setDecimal(&cfg.Strategy.MaxSpread)},
		{"strategy", "min_price", setDecimal(&cfg.Strategy.MinPrice)},
		{"strategy", "max_price", setDecimal(&cfg.Strategy.MaxPrice)},
		{"strategy", "order_quote_amount", setDecimal(&cfg.Strategy.OrderQuoteAmount)},

		{"risk", "max_total_position", setDecimal(&cfg.Risk.MaxTotalPosition)},
		{"risk", "max_position_per_market", setDecimal(&cfg.Risk.MaxPositionPerMarket)},
		{"risk", "min_available_balance", setDecimal(&cfg.Risk.MinAvailableBalance)},
		{"risk", "duplicate_order_cooldown", setInt(&cfg.Risk.DuplicateOrderCooldown)},
		{"risk", "sell_order_threshold", setDecimal(&cfg.Risk.SellOrderThreshold)},
		{"risk", "quote_token", setString(&cfg.Risk.QuoteToken)},

		{"scheduler", "poll_interval_seconds", setFloat(&cfg.Scheduler.PollIntervalSeconds)},

		{"logging", "level", setString(&cfg.Logging.Level)},
		{"logging", "format", setString(&cfg.Logging.Format)},
		{"logging", "log_to_console", setBool(&cfg.Logging.LogToConsole)},
		{"logging", "log_to_file", setBool(&cfg.Logging.LogToFile)},
		{"logging", "log_file", setString(&cfg.Logging.LogFile)},

		{"monitoring", "enable_metrics", setBool(&cfg.Monitoring.EnableMetrics)},
		{"monitoring", "listen_addr", setString(&cfg.Monitoring.ListenAddr)},

		{"storage", "journal_dsn", setString(&cfg.Storage.JournalDSN)},
	}

	for _, o := range overrides {
		name := EnvKey(o.section, o.field)
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := o.apply(v); err != nil {
			return fmt.Errorf("%w: env %s=%q: %w", ErrInvalid, name, v, err)
		}
	}

	if v := os.Getenv(EnvPrefix + "_ENABLED_MARKETS"); v != "" {
		ids, err := parseMarketIDs(v)
		if err != nil {
			return fmt.Errorf("%w: env %s_ENABLED_MARKETS: %w", ErrInvalid, EnvPrefix, err)
		}
		cfg.EnabledMarkets = ids
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setDecimal(dst *decimal.Decimal) func(string) error {
	return func(v string) error {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			*dst = true
		default:
			*dst = false
		}
		return nil
	}
}
