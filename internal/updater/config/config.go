package config

import (
	"fmt"
	"time"

	"github.com/hiyoco-of-piyo/sedori-auto/pkg/config"
)

// Scraper holds the fetch-layer configuration for the buyback target.
type Scraper struct {
	BaseURL          string        `mapstructure:"base_url"`
	SearchPath       string        `mapstructure:"search_path"`
	SearchParam      string        `mapstructure:"search_param"`
	RequestDelay     time.Duration `mapstructure:"request_delay"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
	UserAgent        string        `mapstructure:"user_agent"`
}

// Runner holds the batch runner configuration.
type Runner struct {
	BatchSize    int           `mapstructure:"batch_size"`
	PerItemDelay time.Duration `mapstructure:"per_item_delay"`
	TimeBudget   time.Duration `mapstructure:"time_budget"`
	NumericOnly  bool          `mapstructure:"numeric_only"`
}

// Ledger holds the ledger backend configuration. The three result
// columns must be contiguous, price first and link last.
type Ledger struct {
	Backend         string        `mapstructure:"backend"` // "sheets" or "excel"
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	SheetName       string        `mapstructure:"sheet_name"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	ExcelFile       string        `mapstructure:"excel_file"`
	JANColumn       string        `mapstructure:"jan_column"`
	PriceColumn     string        `mapstructure:"price_column"`
	DateColumn      string        `mapstructure:"date_column"`
	LinkColumn      string        `mapstructure:"link_column"`
	WriteCooldown   time.Duration `mapstructure:"write_cooldown"`
}

// Progress holds the progress store configuration.
type Progress struct {
	Dir string `mapstructure:"dir"`
}

// Schedule holds the periodic trigger configuration.
type Schedule struct {
	Cron string `mapstructure:"cron"`
}

// Telegram holds configuration for the run-summary notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the price updater.
type Config struct {
	App      config.App    `mapstructure:"app"`
	Logger   config.Logger `mapstructure:"logger"`
	API      config.API    `mapstructure:"api"`
	Scraper  Scraper       `mapstructure:"scraper"`
	Runner   Runner        `mapstructure:"runner"`
	Ledger   Ledger        `mapstructure:"ledger"`
	Progress Progress      `mapstructure:"progress"`
	Schedule Schedule      `mapstructure:"schedule"`
	Telegram Telegram      `mapstructure:"telegram"`
}

// Load loads the updater configuration from the given path and applies
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.SearchPath == "" {
		c.Scraper.SearchPath = "/search"
	}
	if c.Scraper.SearchParam == "" {
		c.Scraper.SearchParam = "sk"
	}
	if c.Scraper.RequestDelay <= 0 {
		c.Scraper.RequestDelay = 2 * time.Second
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = 20 * time.Second
	}
	if c.Scraper.MaxRetries <= 0 {
		c.Scraper.MaxRetries = 3
	}
	if c.Scraper.RateLimitBackoff <= 0 {
		c.Scraper.RateLimitBackoff = 2 * time.Second
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Runner.BatchSize <= 0 {
		c.Runner.BatchSize = 20
	}
	if c.Runner.PerItemDelay <= 0 {
		c.Runner.PerItemDelay = 1500 * time.Millisecond
	}
	if c.Runner.TimeBudget <= 0 {
		c.Runner.TimeBudget = 5 * time.Minute
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "excel"
	}
	if c.Ledger.JANColumn == "" {
		c.Ledger.JANColumn = "B"
	}
	if c.Ledger.PriceColumn == "" {
		c.Ledger.PriceColumn = "C"
	}
	if c.Ledger.DateColumn == "" {
		c.Ledger.DateColumn = "D"
	}
	if c.Ledger.LinkColumn == "" {
		c.Ledger.LinkColumn = "E"
	}
	if c.Ledger.WriteCooldown <= 0 {
		c.Ledger.WriteCooldown = 60 * time.Second
	}
	if c.Progress.Dir == "" {
		c.Progress.Dir = "data"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 9 * * *"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = "console"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// Validate checks that the configuration is usable at all; failures here
// are fatal before any item is processed.
func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	switch c.Ledger.Backend {
	case "sheets":
		if c.Ledger.SpreadsheetID == "" {
			return fmt.Errorf("ledger.spreadsheet_id is required for the sheets backend")
		}
		if c.Ledger.CredentialsFile == "" {
			return fmt.Errorf("ledger.credentials_file is required for the sheets backend")
		}
	case "excel":
		if c.Ledger.ExcelFile == "" {
			return fmt.Errorf("ledger.excel_file is required for the excel backend")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	return nil
}
