// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCurrencyAPIURL is used when CURRENCY_API_URL is not set.
const DefaultCurrencyAPIURL = "https://api.exchangerate.host"

// DefaultCurrencyAPITimeout bounds a single conversion request.
const DefaultCurrencyAPITimeout = 30 * time.Second

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken   string
	DatabaseURL        string
	CurrencyAPIURL     string
	CurrencyAPIKey     string
	CurrencyAPITimeout time.Duration
	LogLevel           string
	OTelExporter       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CurrencyAPIURL:   os.Getenv("CURRENCY_API_URL"),
		CurrencyAPIKey:   os.Getenv("CURRENCY_API_KEY"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		OTelExporter:     os.Getenv("OTEL_EXPORTER"),
	}

	if cfg.CurrencyAPIURL == "" {
		cfg.CurrencyAPIURL = DefaultCurrencyAPIURL
	}

	cfg.CurrencyAPITimeout = DefaultCurrencyAPITimeout
	if secStr := os.Getenv("CURRENCY_API_TIMEOUT"); secStr != "" {
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			cfg.CurrencyAPITimeout = time.Duration(sec) * time.Second
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
