package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BetaScope/internal/model"
)

// Config holds all application configuration.
type Config struct {
	TInvest struct {
		Token   string `yaml:"token"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"t_invest"`
	Index struct {
		FIGI string `yaml:"figi"`
	} `yaml:"index"`
	Securities []model.Security `yaml:"securities"`
	Window     struct {
		Months  int `yaml:"months"`
		LagDays int `yaml:"lag_days"`
	} `yaml:"window"`
	Fetch struct {
		Timeout       time.Duration `yaml:"timeout"`
		Concurrency   int           `yaml:"concurrency"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Burst         int           `yaml:"burst"`
	} `yaml:"fetch"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[INFO] no %s file found, relying on environment variables", path)
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Zero is a valid lag, so its default goes in before the file is read.
	cfg.Window.LagDays = 1

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
	if v := os.Getenv("TOKEN"); v != "" {
		cfg.TInvest.Token = v
	}
	if v := os.Getenv("TINVEST_TOKEN"); v != "" {
		cfg.TInvest.Token = v
	}
	if v := os.Getenv("TINVEST_BASE_URL"); v != "" {
		cfg.TInvest.BaseURL = v
	}
	if v := os.Getenv("INDEX_FIGI"); v != "" {
		cfg.Index.FIGI = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REPORT_CRON"); v != "" {
		cfg.Schedule.ReportCron = v
	}
	if v := os.Getenv("WINDOW_MONTHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Window.Months = n
		}
	}

	// Defaults
	if cfg.TInvest.BaseURL == "" {
		cfg.TInvest.BaseURL = "https://invest-public-api.tinkoff.ru/rest"
	}
	if cfg.Index.FIGI == "" {
		cfg.Index.FIGI = "BBG004730JJ5"
	}
	if cfg.Window.Months == 0 {
		cfg.Window.Months = 12
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 4
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 5
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = 5
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.TInvest.Token == "" {
		return fmt.Errorf("t_invest.token is required (or TINVEST_TOKEN / TOKEN)")
	}
	if c.Index.FIGI == "" {
		return fmt.Errorf("index.figi is required")
	}
	if len(c.Securities) == 0 {
		return fmt.Errorf("at least one security is required")
	}
	seen := make(map[string]bool, len(c.Securities))
	for i, s := range c.Securities {
		if s.Label == "" {
			return fmt.Errorf("securities[%d].label is required", i)
		}
		if seen[s.Label] {
			return fmt.Errorf("securities[%d]: duplicate label %q", i, s.Label)
		}
		seen[s.Label] = true
		if s.FIGI == "" {
			return fmt.Errorf("securities[%d] (%s): figi is required", i, s.Label)
		}
		if s.BrokerBeta == 0 || math.IsNaN(s.BrokerBeta) || math.IsInf(s.BrokerBeta, 0) {
			return fmt.Errorf("securities[%d] (%s): broker_beta must be a non-zero number", i, s.Label)
		}
	}
	if c.Window.Months <= 0 {
		return fmt.Errorf("window.months must be positive")
	}
	if c.Window.LagDays < 0 {
		return fmt.Errorf("window.lag_days must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	if c.Fetch.RatePerSecond <= 0 || c.Fetch.Burst < 1 {
		return fmt.Errorf("fetch.rate_per_second and fetch.burst must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether report delivery to Telegram is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
