// Package config defines the top-level configuration for the arbitrage
// execution engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBENGINE_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Slippage SlippageConfig `toml:"slippage"`
	Fees     FeesConfig     `toml:"fees"`
	Sizing   SizingConfig   `toml:"sizing"`
	Server   ServerConfig   `toml:"server"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds executor tunables.
type EngineConfig struct {
	// DefaultMaxSlippage is the per-call slippage tolerance used when a
	// request does not carry one.
	DefaultMaxSlippage float64 `toml:"default_max_slippage"`
	// MinLatencyMs / MaxLatencyMs bound the simulated venue latency.
	MinLatencyMs    int64 `toml:"min_latency_ms"`
	MaxLatencyMs    int64 `toml:"max_latency_ms"`
	CancelLatencyMs int64 `toml:"cancel_latency_ms"`
}

// SlippageConfig is the process-wide slippage policy. It is shared by every
// slippage computation; the engine guards mutation behind a write lock.
type SlippageConfig struct {
	MaxSlippagePercent   float64            `toml:"max_slippage_percent"` // fraction, 0.005 = 0.5%
	PriceImpactThreshold float64            `toml:"price_impact_threshold"`
	AdaptiveSlippage     bool               `toml:"adaptive_slippage"`
	VolatilityMultiplier float64            `toml:"volatility_multiplier"`
	VenueFactors         map[string]float64 `toml:"venue_factors"`
}

// FeesConfig holds the per-venue commission schedule.
type FeesConfig struct {
	// Rates maps venue name (lowercase) to its taker fee rate as a fraction.
	Rates       map[string]float64 `toml:"rates"`
	DefaultRate float64            `toml:"default_rate"`
}

// SizingConfig holds minimum order sizes per base currency.
type SizingConfig struct {
	MinOrderSizes  map[string]float64 `toml:"min_order_sizes"`
	DefaultMinSize float64            `toml:"default_min_size"`
}

// ServerConfig holds the HTTP API server settings.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables authentication
}

// Defaults returns the built-in configuration, mirroring the venue tables the
// engine shipped with before they became injectable.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			DefaultMaxSlippage: 0.005,
			MinLatencyMs:       100,
			MaxLatencyMs:       300,
			CancelLatencyMs:    50,
		},
		Slippage: SlippageConfig{
			MaxSlippagePercent:   0.005,
			PriceImpactThreshold: 0.001,
			AdaptiveSlippage:     true,
			VolatilityMultiplier: 2.0,
			VenueFactors: map[string]float64{
				"binance": 0.8,
				"okx":     0.9,
				"bybit":   1.0,
				"kucoin":  1.1,
				"gate":    1.2,
				"mexc":    1.3,
				"bitget":  1.0,
				"coinex":  1.1,
			},
		},
		Fees: FeesConfig{
			Rates: map[string]float64{
				"binance": 0.001,
				"okx":     0.001,
				"bybit":   0.001,
				"kucoin":  0.001,
				"gate":    0.002,
				"mexc":    0.002,
				"bitget":  0.001,
				"coinex":  0.001,
			},
			DefaultRate: 0.001,
		},
		Sizing: SizingConfig{
			MinOrderSizes: map[string]float64{
				"BTC": 0.00001,
				"ETH": 0.0001,
				"BNB": 0.001,
			},
			DefaultMinSize: 0.01,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8090,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Slippage.MaxSlippagePercent <= 0 || c.Slippage.MaxSlippagePercent > 1 {
		return fmt.Errorf("config: slippage.max_slippage_percent must be in (0, 1], got %v", c.Slippage.MaxSlippagePercent)
	}
	if c.Slippage.VolatilityMultiplier < 0 {
		return fmt.Errorf("config: slippage.volatility_multiplier must be >= 0")
	}
	if c.Engine.DefaultMaxSlippage <= 0 {
		return fmt.Errorf("config: engine.default_max_slippage must be > 0")
	}
	if c.Engine.MinLatencyMs < 0 || c.Engine.MaxLatencyMs < c.Engine.MinLatencyMs {
		return fmt.Errorf("config: engine latency bounds invalid: min=%d max=%d", c.Engine.MinLatencyMs, c.Engine.MaxLatencyMs)
	}
	for venue, rate := range c.Fees.Rates {
		if rate < 0 {
			return fmt.Errorf("config: fees.rates[%q] must be >= 0", venue)
		}
	}
	if c.Fees.DefaultRate < 0 {
		return fmt.Errorf("config: fees.default_rate must be >= 0")
	}
	if c.Sizing.DefaultMinSize <= 0 {
		return fmt.Errorf("config: sizing.default_min_size must be > 0")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}
