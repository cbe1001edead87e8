package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"SellBreakout/internal/model"
	"SellBreakout/internal/strategy"
	"SellBreakout/internal/symbols"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider"` // "yahoo" or "rest"
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Market struct {
		Suffix   string `yaml:"suffix"`
		Exchange string `yaml:"exchange"`
	} `yaml:"market"`
	Scan struct {
		Symbols  string `yaml:"symbols"`
		Interval string `yaml:"interval"`
		Start    string `yaml:"start"`
		End      string `yaml:"end"`
		Workers  int    `yaml:"workers"`
	} `yaml:"scan"`
	Detection struct {
		SellBodyThreshold *float64 `yaml:"sell_body_threshold"`
	} `yaml:"detection"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads the optional .env file and the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SCAN_SYMBOLS"); v != "" {
		cfg.Scan.Symbols = v
	}
	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		cfg.Scan.Interval = v
	}
	if v := os.Getenv("SELL_BODY_THRESHOLD"); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse SELL_BODY_THRESHOLD: %w", err)
		}
		cfg.Detection.SellBodyThreshold = &th
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if cfg.Market.Suffix == "" {
		cfg.Market.Suffix = ".SR"
	}
	if cfg.Market.Exchange == "" {
		cfg.Market.Exchange = "TADAWUL"
	}
	if cfg.Scan.Symbols == "" {
		cfg.Scan.Symbols = "1120 2380 1050"
	}
	if cfg.Scan.Interval == "" {
		cfg.Scan.Interval = model.IntervalDaily
	}
	if cfg.Scan.Start == "" {
		cfg.Scan.Start = "2020-01-01"
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 4
	}
	if cfg.Detection.SellBodyThreshold == nil {
		th := strategy.DefaultSellBodyThreshold
		cfg.Detection.SellBodyThreshold = &th
	}
	if cfg.Schedule.ScanCron == "" {
		// Tadawul trades Sunday to Thursday and closes at 15:00 local time.
		cfg.Schedule.ScanCron = "0 30 15 * * 0-4"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Asia/Riyadh"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider must be yahoo or rest, got %q", c.DataSource.Provider)
	}
	if !model.ValidInterval(c.Scan.Interval) {
		return fmt.Errorf("scan.interval must be 1d, 1wk or 1mo, got %q", c.Scan.Interval)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative")
	}
	if _, err := c.Query(); err != nil {
		return err
	}
	if err := c.DetectionConfig().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if c.Schedule.ScanCron == "" {
		return fmt.Errorf("schedule.scan_cron is required")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}

// DetectionConfig returns the detector configuration.
func (c *Config) DetectionConfig() strategy.Config {
	cfg := strategy.DefaultConfig()
	if c.Detection.SellBodyThreshold != nil {
		cfg.SellBodyThreshold = *c.Detection.SellBodyThreshold
	}
	return cfg
}

// Watchlist returns the configured symbols with the market suffix applied.
func (c *Config) Watchlist() []string {
	return symbols.Parse(c.Scan.Symbols, c.Market.Suffix)
}

// Query returns the configured bar window. An empty end date means "now".
func (c *Config) Query() (model.BarQuery, error) {
	return ParseQuery(c.Scan.Interval, c.Scan.Start, c.Scan.End)
}

// ParseQuery builds a BarQuery from YYYY-MM-DD dates. The end date is
// inclusive: the window runs up to the start of the following day.
func ParseQuery(interval, start, end string) (model.BarQuery, error) {
	q := model.BarQuery{Interval: interval}
	if !model.ValidInterval(interval) {
		return q, fmt.Errorf("unsupported interval %q", interval)
	}
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return q, fmt.Errorf("parse start date: %w", err)
		}
		q.Start = t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return q, fmt.Errorf("parse end date: %w", err)
		}
		q.End = t.AddDate(0, 0, 1)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && !q.End.After(q.Start) {
		return q, fmt.Errorf("end date must not be before start date")
	}
	return q, nil
}
