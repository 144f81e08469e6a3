// Package config loads the bot configuration: YAML file, environment
// overrides for secrets, then validation. The bot refuses to start on
// an invalid config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"swingtrader/internal/botfail"
	"swingtrader/internal/logger"
	"swingtrader/internal/options"
	"swingtrader/internal/retry"
	"swingtrader/internal/risk"
	"swingtrader/internal/scanner"
	"swingtrader/internal/schedule"
	"swingtrader/internal/signal"
)

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Monitoring holds the metrics and health listener addresses.
type Monitoring struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsAddr string `yaml:"metrics_addr"`
	HealthAddr  string `yaml:"health_addr"`
}

// Telegram holds the alert channel credentials.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

// Reporting controls the daily summary outputs.
type Reporting struct {
	Console  bool   `yaml:"console"`
	ExcelDir string `yaml:"excel_dir"`
}

// Config is the full bot configuration.
type Config struct {
	PaperMode      bool    `yaml:"paper_mode"`
	PaperEquity    float64 `yaml:"paper_equity"`
	StatePath      string  `yaml:"state_path"`
	BrokerTimeoutS int     `yaml:"broker_timeout_seconds"`
	BarLookback    int     `yaml:"bar_lookback"`

	Alpaca     Alpaca          `yaml:"alpaca"`
	Signal     signal.Config   `yaml:"signal"`
	Selector   options.Filter  `yaml:"selector"`
	Risk       risk.Limits     `yaml:"risk"`
	Schedule   schedule.Config `yaml:"schedule"`
	Scanner    scanner.Config  `yaml:"scanner"`
	Retry      retry.Config    `yaml:"retry"`
	Logging    logger.Config   `yaml:"logging"`
	Monitoring Monitoring      `yaml:"monitoring"`
	Telegram   Telegram        `yaml:"telegram"`
	Reporting  Reporting       `yaml:"reporting"`
}

// Default returns the configuration the bot runs with when the file
// omits a section.
func Default() *Config {
	return &Config{
		PaperMode:      true,
		PaperEquity:    10_000,
		StatePath:      "data/positions.json",
		BrokerTimeoutS: 60,
		BarLookback:    60,
		Signal:         signal.DefaultConfig(),
		Selector: options.Filter{
			DTEMin:          14,
			DTEMax:          60,
			DeltaMin:        0.25,
			DeltaMax:        0.60,
			MinOpenInterest: 100,
		},
		Risk:     risk.DefaultLimits(),
		Schedule: schedule.DefaultConfig(),
		Scanner:  scanner.DefaultConfig(),
		Retry:    retry.DefaultConfig(),
		Logging:  logger.DefaultConfig(),
		Monitoring: Monitoring{
			Enabled:     true,
			MetricsAddr: ":9090",
			HealthAddr:  ":8080",
		},
		Reporting: Reporting{Console: true, ExcelDir: "reports"},
	}
}

// Load reads the YAML file at path over the defaults, applies
// environment overrides and validates the result. An empty path loads
// defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, botfail.NewConfigError("config", fmt.Sprintf("read %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, botfail.NewConfigError("config", fmt.Sprintf("parse %s", path), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides pulls secrets from the environment so they never
// have to live in the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
}

// Validate rejects configurations the bot cannot safely run with.
func (c *Config) Validate() error {
	fail := func(msg string) error {
		return botfail.NewConfigError("config", msg, nil)
	}

	if !c.PaperMode && (c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "") {
		return fail("live mode requires Alpaca credentials")
	}
	if c.PaperMode && c.PaperEquity <= 0 {
		return fail("paper equity must be positive")
	}
	if c.StatePath == "" {
		return fail("state_path is required")
	}
	if c.BrokerTimeoutS <= 0 {
		return fail("broker timeout must be positive")
	}
	if c.BarLookback < c.Signal.MinBars() {
		return fail(fmt.Sprintf("bar_lookback %d below the %d bars the signal engine needs", c.BarLookback, c.Signal.MinBars()))
	}

	if c.Selector.DTEMin < 0 || c.Selector.DTEMax < c.Selector.DTEMin {
		return fail("selector DTE range is inverted")
	}
	if c.Selector.DeltaMin < 0 || c.Selector.DeltaMax < c.Selector.DeltaMin {
		return fail("selector delta range is inverted")
	}
	if c.Selector.MinOpenInterest < 0 {
		return fail("minimum open interest cannot be negative")
	}

	if c.Risk.MaxOpenPositions <= 0 {
		return fail("max open positions must be positive")
	}
	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return fail("max position percent must be in (0, 1]")
	}
	if c.Risk.MaxExposurePct < c.Risk.MaxPositionPct || c.Risk.MaxExposurePct > 1 {
		return fail("max exposure percent must cover at least one position and not exceed 1")
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 1 {
		return fail("stop loss percent must be in (0, 1)")
	}
	if c.Risk.TakeProfitPct <= 0 {
		return fail("take profit percent must be positive")
	}
	if c.Risk.StopLossPct >= c.Risk.TakeProfitPct {
		return fail("stop loss percent must be below take profit percent")
	}
	if c.Risk.MaxHoldDays <= 0 {
		return fail("max hold days must be positive")
	}

	if c.Scanner.TopN <= 0 || len(c.Scanner.Universe) == 0 {
		return fail("scanner needs a universe and a positive top_n")
	}

	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == "") {
		return fail("telegram alerts need a token and chat id")
	}

	// Exits must be checked at least as often as entries are considered.
	if c.Schedule.ScanIntervalM < c.Schedule.ExitIntervalM {
		return fail("scan interval must not be shorter than the exit-check interval")
	}

	// The schedule validates its own timetable.
	if _, err := schedule.New(c.Schedule); err != nil {
		return err
	}
	return nil
}
