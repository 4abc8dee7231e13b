package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAPIDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "TYCOON_PAYMENT_URL"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr got %q want :8080", cfg.Addr)
	}
	if cfg.TickEvery != time.Second {
		t.Fatalf("tick every got %s want 1s", cfg.TickEvery)
	}
	if cfg.MarketVolatility != "normal" {
		t.Fatalf("volatility got %q", cfg.MarketVolatility)
	}
	if cfg.DatabaseURL != "" || cfg.PaymentURL != "" {
		t.Fatalf("optional backends should default empty: %+v", cfg)
	}
}

func TestLoadAPIPortOverridesAddr(t *testing.T) {
	t.Setenv("TYCOON_ADDR", ":9000")
	t.Setenv("PORT", "7070")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("addr got %q want :7070", cfg.Addr)
	}
}

func TestLoadAPINormalizes(t *testing.T) {
	t.Setenv("TYCOON_MARKET_VOLATILITY", " WILD ")
	t.Setenv("TYCOON_PAYMENT_URL", "https://pay.example.com/ ")
	t.Setenv("TYCOON_TICK_EVERY", "250ms")
	t.Setenv("TYCOON_MARKET_SEED", "42")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MarketVolatility != "wild" {
		t.Fatalf("volatility got %q", cfg.MarketVolatility)
	}
	if cfg.PaymentURL != "https://pay.example.com" {
		t.Fatalf("payment url got %q", cfg.PaymentURL)
	}
	if cfg.TickEvery != 250*time.Millisecond || cfg.MarketSeed != 42 {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
}

func TestLoadAPIUnknownVolatilityFallsBack(t *testing.T) {
	t.Setenv("TYCOON_MARKET_VOLATILITY", "mor")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MarketVolatility != "normal" {
		t.Fatalf("volatility got %q want normal", cfg.MarketVolatility)
	}
}

func TestLoadAPIRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{key: "TYCOON_TICK_EVERY", value: "soon", want: "parse env:"},
		{key: "TYCOON_TICK_EVERY", value: "0s", want: "TYCOON_TICK_EVERY"},
		{key: "TYCOON_COMMAND_RATE", value: "-1", want: "TYCOON_COMMAND_RATE"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := LoadAPIFromEnv()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v want error containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadCLITrimsSlash(t *testing.T) {
	t.Setenv("TYC_SERVER_URL", "http://game.local:8080/")
	cfg, err := LoadCLIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://game.local:8080" {
		t.Fatalf("server url got %q", cfg.ServerURL)
	}
}
