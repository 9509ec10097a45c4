package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBENGINE_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment overrides. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBENGINE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators tune the engine at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setFloat64(&cfg.Engine.DefaultMaxSlippage, "ARBENGINE_DEFAULT_MAX_SLIPPAGE")
	setInt64(&cfg.Engine.MinLatencyMs, "ARBENGINE_MIN_LATENCY_MS")
	setInt64(&cfg.Engine.MaxLatencyMs, "ARBENGINE_MAX_LATENCY_MS")
	setInt64(&cfg.Engine.CancelLatencyMs, "ARBENGINE_CANCEL_LATENCY_MS")

	// ── Slippage ──
	setFloat64(&cfg.Slippage.MaxSlippagePercent, "ARBENGINE_SLIPPAGE_MAX_PERCENT")
	setFloat64(&cfg.Slippage.PriceImpactThreshold, "ARBENGINE_SLIPPAGE_PRICE_IMPACT_THRESHOLD")
	setBool(&cfg.Slippage.AdaptiveSlippage, "ARBENGINE_SLIPPAGE_ADAPTIVE")
	setFloat64(&cfg.Slippage.VolatilityMultiplier, "ARBENGINE_SLIPPAGE_VOLATILITY_MULTIPLIER")

	// ── Fees ──
	setFloat64(&cfg.Fees.DefaultRate, "ARBENGINE_FEES_DEFAULT_RATE")

	// ── Sizing ──
	setFloat64(&cfg.Sizing.DefaultMinSize, "ARBENGINE_SIZING_DEFAULT_MIN_SIZE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBENGINE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBENGINE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBENGINE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBENGINE_SERVER_API_KEY")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARBENGINE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
