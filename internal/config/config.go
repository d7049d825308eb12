package config

import (
	"time"

	"ashare-data-collector/internal/collector"
	"ashare-data-collector/pkg/config"
)

// Provider holds market-data gateway configuration.
type Provider struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RetryCount          int           `mapstructure:"retry_count"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
}

// Calendar holds the trading-calendar span to materialize.
type Calendar struct {
	StartYear int `mapstructure:"start_year"`
	EndYear   int `mapstructure:"end_year"`
}

// Collector holds collection tuning.
type Collector struct {
	Pacing          collector.PacingConfig   `mapstructure:"pacing"`
	IndexRetryDelay time.Duration            `mapstructure:"index_retry_delay"`
	Indices         []collector.TrackedIndex `mapstructure:"indices"`
	Calendar        Calendar                 `mapstructure:"calendar"`
	News            collector.NewsConfig     `mapstructure:"news"`
}

// Scheduler holds the cron expressions for the standing jobs.
type Scheduler struct {
	DailyCron  string `mapstructure:"daily_cron"`
	WeeklyCron string `mapstructure:"weekly_cron"`
	NewsCron   string `mapstructure:"news_cron"`
}

// Telegram holds Telegram notifier configuration.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Feishu holds Feishu webhook notifier configuration.
type Feishu struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// Notify holds notifier configuration.
type Notify struct {
	Feishu   Feishu   `mapstructure:"feishu"`
	Telegram Telegram `mapstructure:"telegram"`
}

// Config is the root application configuration.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Provider  Provider        `mapstructure:"provider"`
	Collector Collector       `mapstructure:"collector"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
	Notify    Notify          `mapstructure:"notify"`
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := config.Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
