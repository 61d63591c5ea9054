package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/analysis"
	"github.com/schundi365/IndianTradingbot-sub002/internal/engine"
)

// Config is the full engine configuration, loaded from a JSON file with
// environment overrides applied on top.
type Config struct {
	MomentumConfig       analysis.MomentumConfig       `json:"momentum"`
	RangeDirectionConfig analysis.RangeDirectionConfig `json:"range_direction"`
	StructureConfig      analysis.StructureConfig      `json:"structure"`
	DivergenceConfig     analysis.DivergenceConfig     `json:"divergence"`
	TimeframeConfig      analysis.TimeframeConfig      `json:"timeframe"`
	EngineConfig         engine.Config                 `json:"engine"`
	LoggingConfig        LoggingConfig                 `json:"logging"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // stdout, stderr, or file path
	Pretty bool   `json:"pretty"` // console writer instead of JSON
}

// DefaultConfig returns the defaults for every section.
func DefaultConfig() *Config {
	return &Config{
		MomentumConfig:       analysis.DefaultMomentumConfig(),
		RangeDirectionConfig: analysis.DefaultRangeDirectionConfig(),
		StructureConfig:      analysis.DefaultStructureConfig(),
		DivergenceConfig:     analysis.DefaultDivergenceConfig(),
		TimeframeConfig:      analysis.DefaultTimeframeConfig(),
		EngineConfig:         engine.DefaultConfig(),
		LoggingConfig:        LoggingConfig{Level: "info", Output: "stdout"},
	}
}

// LoadConfig loads the JSON config file when it exists, applies env
// overrides, and validates. A missing file is not an error; defaults plus
// env apply.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := loadFromFile(filename, cfg)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(filename string, base *Config) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := *base
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &config, nil
}

func applyEnvOverrides(cfg *Config) {
	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("TREND_LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("TREND_LOG_OUTPUT", cfg.LoggingConfig.Output)

	// Momentum
	cfg.MomentumConfig.FastPeriod = getEnvIntOrDefault("TREND_MOMENTUM_FAST_PERIOD", cfg.MomentumConfig.FastPeriod)
	cfg.MomentumConfig.SlowPeriod = getEnvIntOrDefault("TREND_MOMENTUM_SLOW_PERIOD", cfg.MomentumConfig.SlowPeriod)
	cfg.MomentumConfig.SeparationThreshold = getEnvFloatOrDefault("TREND_MOMENTUM_SEPARATION_THRESHOLD", cfg.MomentumConfig.SeparationThreshold)
	cfg.MomentumConfig.ConfirmationBars = getEnvIntOrDefault("TREND_MOMENTUM_CONFIRMATION_BARS", cfg.MomentumConfig.ConfirmationBars)

	// Structure
	cfg.StructureConfig.SwingStrength = getEnvIntOrDefault("TREND_STRUCTURE_SWING_STRENGTH", cfg.StructureConfig.SwingStrength)
	cfg.StructureConfig.MinBreakDistance = getEnvFloatOrDefault("TREND_STRUCTURE_MIN_BREAK_DISTANCE", cfg.StructureConfig.MinBreakDistance)

	// Divergence
	cfg.DivergenceConfig.Lookback = getEnvIntOrDefault("TREND_DIVERGENCE_LOOKBACK", cfg.DivergenceConfig.Lookback)
	cfg.DivergenceConfig.ValidationSwings = getEnvIntOrDefault("TREND_DIVERGENCE_VALIDATION_SWINGS", cfg.DivergenceConfig.ValidationSwings)

	// Timeframe
	cfg.TimeframeConfig.AlignmentThreshold = getEnvFloatOrDefault("TREND_ALIGNMENT_THRESHOLD", cfg.TimeframeConfig.AlignmentThreshold)

	// Engine
	cfg.EngineConfig.MinSignalConfidence = getEnvFloatOrDefault("TREND_MIN_SIGNAL_CONFIDENCE", cfg.EngineConfig.MinSignalConfidence)
	cfg.EngineConfig.MinTradeConfidence = getEnvFloatOrDefault("TREND_MIN_TRADE_CONFIDENCE", cfg.EngineConfig.MinTradeConfidence)
	cfg.EngineConfig.BreakerFailures = uint32(getEnvIntOrDefault("TREND_BREAKER_FAILURES", int(cfg.EngineConfig.BreakerFailures)))
	cfg.EngineConfig.BreakerCooldown = getEnvDurationOrDefault("TREND_BREAKER_COOLDOWN", cfg.EngineConfig.BreakerCooldown)
	cfg.EngineConfig.CacheTTL = getEnvDurationOrDefault("TREND_CACHE_TTL", cfg.EngineConfig.CacheTTL)
}

// Validate rejects configurations the analyzers would refuse at
// construction time, so misconfiguration surfaces at startup.
func (c *Config) Validate() error {
	if c.MomentumConfig.FastPeriod <= 0 || c.MomentumConfig.SlowPeriod <= 0 {
		return fmt.Errorf("config: momentum periods must be positive")
	}
	if c.MomentumConfig.FastPeriod >= c.MomentumConfig.SlowPeriod {
		return fmt.Errorf("config: momentum fast period must be below slow period")
	}
	if c.RangeDirectionConfig.Period <= 0 {
		return fmt.Errorf("config: range direction period must be positive")
	}
	if c.StructureConfig.SwingStrength <= 0 {
		return fmt.Errorf("config: structure swing strength must be positive")
	}
	if c.StructureConfig.MinBreakDistance <= 0 {
		return fmt.Errorf("config: structure min break distance must be positive")
	}
	if c.DivergenceConfig.OscPeriod <= 0 {
		return fmt.Errorf("config: divergence oscillator period must be positive")
	}
	if c.TimeframeConfig.AlignmentThreshold <= 0 || c.TimeframeConfig.AlignmentThreshold > 1 {
		return fmt.Errorf("config: alignment threshold must be in (0,1]")
	}

	weightSum := 0.0
	for _, w := range c.EngineConfig.Weights {
		if w < 0 {
			return fmt.Errorf("config: signal weights must be non-negative")
		}
		weightSum += w
	}
	if len(c.EngineConfig.Weights) > 0 && (weightSum < 0.99 || weightSum > 1.01) {
		return fmt.Errorf("config: signal weights must sum to 1.0, got %.2f", weightSum)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
