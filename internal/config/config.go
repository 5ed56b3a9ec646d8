package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"./rehab_clicker.db"`
	Log           Log
	Presentation  Presentation
	// MaxTypingRate is the characters per second above which a rehab answer counts as pasted
	MaxTypingRate float64 `env:"REHAB_MAX_CHARS_PER_SECOND" envDefault:"15"`
	// IdleTimeout closes bot games nobody has touched for this long
	IdleTimeout time.Duration `env:"GAME_IDLE_TIMEOUT" envDefault:"6h"`
}

// Log configures zerolog output
type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// File receives logs instead of stdout, required by the terminal UI
	File   string `env:"LOG_FILE"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Presentation tunes how long transient messages stay up
type Presentation struct {
	WarningTTL time.Duration `env:"WARNING_TTL" envDefault:"2s"`
	SuccessTTL time.Duration `env:"SUCCESS_TTL" envDefault:"3s"`
	// TickRenderEvery throttles Telegram message edits to one per N effect pulses
	TickRenderEvery int `env:"TELEGRAM_TICK_RENDER_EVERY" envDefault:"5"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if c.MaxTypingRate < 0 {
		return errors.New("REHAB_MAX_CHARS_PER_SECOND must not be negative")
	}
	if c.Presentation.WarningTTL <= 0 || c.Presentation.SuccessTTL <= 0 {
		return errors.New("WARNING_TTL and SUCCESS_TTL must be positive")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("GAME_IDLE_TIMEOUT must be positive")
	}
	if c.Presentation.TickRenderEvery < 1 {
		return errors.New("TELEGRAM_TICK_RENDER_EVERY must be at least 1")
	}
	return nil
}

// RequireToken fails when no bot token is configured
func (c *Config) RequireToken() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	return nil
}
