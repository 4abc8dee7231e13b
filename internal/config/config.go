package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type APIConfig struct {
	Addr             string        `env:"TYCOON_ADDR" envDefault:":8080"`
	Port             string        `env:"PORT"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	PaymentURL       string        `env:"TYCOON_PAYMENT_URL"`
	PaymentAPIKey    string        `env:"TYCOON_PAYMENT_API_KEY"`
	TickEvery        time.Duration `env:"TYCOON_TICK_EVERY" envDefault:"1s"`
	MarketVolatility string        `env:"TYCOON_MARKET_VOLATILITY" envDefault:"normal"`
	MarketSeed       int64         `env:"TYCOON_MARKET_SEED"`
	CommandRate      float64       `env:"TYCOON_COMMAND_RATE" envDefault:"20"`
	CommandBurst     int           `env:"TYCOON_COMMAND_BURST" envDefault:"40"`
	LogLevel         string        `env:"TYCOON_LOG_LEVEL" envDefault:"info"`
}

type CLIConfig struct {
	ServerURL string `env:"TYC_SERVER_URL" envDefault:"http://localhost:8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadAPIFromEnv() (APIConfig, error) {
	var cfg APIConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if port := strings.TrimSpace(cfg.Port); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.PaymentURL = strings.TrimRight(strings.TrimSpace(cfg.PaymentURL), "/")
	cfg.PaymentAPIKey = strings.TrimSpace(cfg.PaymentAPIKey)
	cfg.MarketVolatility = normalizeVolatility(cfg.MarketVolatility)

	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("TYCOON_TICK_EVERY must be positive, got %s", cfg.TickEvery)
	}
	if cfg.CommandRate <= 0 {
		return cfg, fmt.Errorf("TYCOON_COMMAND_RATE must be positive, got %v", cfg.CommandRate)
	}
	if cfg.CommandBurst < 1 {
		cfg.CommandBurst = 1
	}
	return cfg, nil
}

func LoadCLIFromEnv() (CLIConfig, error) {
	var cfg CLIConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	return cfg, nil
}

func normalizeVolatility(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "calm", "normal", "wild":
		return v
	default:
		return "normal"
	}
}
