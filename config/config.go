package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marca una configuración inutilizable. Es un error fatal.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix antecede a todas las variables de entorno que sobreescriben el YAML.
const EnvPrefix = "OPINION_SPREAD"

// Config es la configuración completa del bot.
type Config struct {
	API            APIConfig        `yaml:"api"`
	Strategy       StrategyConfig   `yaml:"strategy"`
	Risk           RiskConfig       `yaml:"risk"`
	Scheduler      SchedulerConfig  `yaml:"scheduler"`
	Logging        LoggingConfig    `yaml:"logging"`
	Monitoring     MonitoringConfig `yaml:"monitoring"`
	Storage        StorageConfig    `yaml:"storage"`
	EnabledMarkets MarketIDs        `yaml:"enabled_markets"`
}

// APIConfig contiene el endpoint del exchange y las credenciales de firma.
type APIConfig struct {
	Host         string `yaml:"host"`
	APIKey       string `yaml:"api_key"`
	ChainID      int64  `yaml:"chain_id"`
	RPCURL       string `yaml:"rpc_url"`
	PrivateKey   string `yaml:"private_key"`
	MultiSigAddr string `yaml:"multi_sig_addr"`
	// CollateralAddr es el ERC-20 de cotización; opcional, solo para el log de arranque.
	CollateralAddr string `yaml:"collateral_addr"`
}

// StrategyConfig controla la selección de tokens y el tamaño de las órdenes.
type StrategyConfig struct {
	TopNTokens       int             `yaml:"top_n_tokens"`
	MinLiquidity     decimal.Decimal `yaml:"min_liquidity"`
	MaxSpread        decimal.Decimal `yaml:"max_spread"`
	MinPrice         decimal.Decimal `yaml:"min_price"`
	MaxPrice         decimal.Decimal `yaml:"max_price"`
	OrderQuoteAmount decimal.Decimal `yaml:"order_quote_amount"`
}

// RiskConfig contiene los límites que se aplican antes de enviar órdenes.
type RiskConfig struct {
	MaxTotalPosition       decimal.Decimal `yaml:"max_total_position"`
	MaxPositionPerMarket   decimal.Decimal `yaml:"max_position_per_market"`
	MinAvailableBalance    decimal.Decimal `yaml:"min_available_balance"`
	DuplicateOrderCooldown int             `yaml:"duplicate_order_cooldown"` // segundos
	SellOrderThreshold     decimal.Decimal `yaml:"sell_order_threshold"`
	QuoteToken             string          `yaml:"quote_token"`
}

// SchedulerConfig controla el ritmo del loop.
type SchedulerConfig struct {
	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
}

// LoggingConfig controla formato, nivel y destino de los logs.
type LoggingConfig struct {
	Level        string `yaml:"level"`  // debug | info | warn | error
	Format       string `yaml:"format"` // text | json
	LogToConsole bool   `yaml:"log_to_console"`
	LogToFile    bool   `yaml:"log_to_file"`
	LogFile      string `yaml:"log_file"`
	MaxSizeMB    int    `yaml:"max_size_mb"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAgeDays   int    `yaml:"max_age_days"`
}

// MonitoringConfig controla el endpoint de Prometheus.
type MonitoringConfig struct {
	EnableMetrics bool   `yaml:"enable_metrics"`
	ListenAddr    string `yaml:"listen_addr"`
}

// StorageConfig controla dónde se guarda el journal.
type StorageConfig struct {
	JournalDSN string `yaml:"journal_dsn"` // ruta SQLite, ":memory:" o vacío para desactivar
}

// MarketIDs accepts either a YAML list or a comma separated string.
type MarketIDs []int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MarketIDs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		ids, err := parseMarketIDs(node.Value)
		if err != nil {
			return err
		}
		*m = ids
		return nil
	case yaml.SequenceNode:
		var ids []int64
		if err := node.Decode(&ids); err != nil {
			return fmt.Errorf("enabled_markets: %w", err)
		}
		*m = ids
		return nil
	default:
		return fmt.Errorf("enabled_markets: expected list or string at line %d", node.Line)
	}
}

func parseMarketIDs(s string) (MarketIDs, error) {
	var ids MarketIDs
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("enabled_markets: %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Default devuelve la configuración por defecto, antes de leer el YAML.
func Default() Config {
	return Config{
		API: APIConfig{Host: "https://proxy.opinion.trade:8443"},
		Strategy: StrategyConfig{
			TopNTokens:       50,
			MinLiquidity:     decimal.NewFromInt(10),
			MaxSpread:        decimal.RequireFromString("0.1"),
			MinPrice:         decimal.RequireFromString("0.05"),
			MaxPrice:         decimal.RequireFromString("0.95"),
			OrderQuoteAmount: decimal.NewFromInt(20),
		},
		Risk: RiskConfig{
			MaxTotalPosition:       decimal.NewFromInt(1000),
			MaxPositionPerMarket:   decimal.NewFromInt(200),
			MinAvailableBalance:    decimal.NewFromInt(20),
			DuplicateOrderCooldown: 60,
			SellOrderThreshold:     decimal.NewFromInt(5),
			QuoteToken:             "USDT",
		},
		Scheduler: SchedulerConfig{PollIntervalSeconds: 15},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "text",
			LogToConsole: true,
			LogFile:      "spreadbot.log",
			MaxSizeMB:    50,
			MaxBackups:   5,
			MaxAgeDays:   14,
		},
		Monitoring: MonitoringConfig{ListenAddr: ":9090"},
		Storage:    StorageConfig{JournalDSN: "spreadbot.db"},
	}
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables OPINION_SPREAD_<SECCION>_<CAMPO> sobreescriben el YAML.
// Un path vacío usa solo defaults y entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w: %w", ErrInvalid, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scheduler.PollIntervalSeconds * float64(time.Second))
}

// DuplicateCooldown devuelve el cooldown de órdenes duplicadas.
func (c *Config) DuplicateCooldown() time.Duration {
	return time.Duration(c.Risk.DuplicateOrderCooldown) * time.Second
}

// Validate checks the loaded values. Signing credentials are only required
// when orders go to the real exchange (trading = true).
func (c *Config) Validate(trading bool) error {
	var problems []string

	if c.API.Host == "" {
		problems = append(problems, "api.host is required")
	}
	if c.API.APIKey == "" {
		problems = append(problems, "api.api_key is required")
	}
	if trading {
		if c.API.ChainID <= 0 {
			problems = append(problems, "api.chain_id is required")
		}
		for name, v := range map[string]string{
			"api.rpc_url":        c.API.RPCURL,
			"api.private_key":    c.API.PrivateKey,
			"api.multi_sig_addr": c.API.MultiSigAddr,
		} {
			if v == "" {
				problems = append(problems, name+" is required")
			}
		}
	}

	if c.Strategy.TopNTokens <= 0 {
		problems = append(problems, "strategy.top_n_tokens must be positive")
	}
	if c.Strategy.MinPrice.GreaterThan(c.Strategy.MaxPrice) {
		problems = append(problems, "strategy.min_price must not exceed strategy.max_price")
	}
	if c.Scheduler.PollIntervalSeconds <= 0 {
		problems = append(problems, "scheduler.poll_interval_seconds must be positive")
	}
	if c.Risk.DuplicateOrderCooldown < 0 {
		problems = append(problems, "risk.duplicate_order_cooldown must not be negative")
	}
	for name, v := range map[string]decimal.Decimal{
		"strategy.min_liquidity":       c.Strategy.MinLiquidity,
		"strategy.max_spread":          c.Strategy.MaxSpread,
		"strategy.min_price":           c.Strategy.MinPrice,
		"strategy.max_price":           c.Strategy.MaxPrice,
		"risk.max_total_position":      c.Risk.MaxTotalPosition,
		"risk.max_position_per_market": c.Risk.MaxPositionPerMarket,
		"risk.min_available_balance":   c.Risk.MinAvailableBalance,
		"risk.sell_order_threshold":    c.Risk.SellOrderThreshold,
	} {
		if v.IsNegative() {
			problems = append(problems, name+" must not be negative")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Risk.QuoteToken == "" {
		cfg.Risk.QuoteToken = "USDT"
	}
	if cfg.Monitoring.ListenAddr == "" {
		cfg.Monitoring.ListenAddr = ":9090"
	}
}
