package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfigValid tests that the defaults pass validation
func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

// TestLoadConfigMissingFile tests that an absent file falls back to defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("A missing config file should not be an error, got %v", err)
	}
	if cfg.MomentumConfig.FastPeriod != 9 {
		t.Errorf("Expected default fast period 9, got %d", cfg.MomentumConfig.FastPeriod)
	}
	if cfg.EngineConfig.MinTradeConfidence != 0.55 {
		t.Errorf("Expected default trade confidence 0.55, got %f", cfg.EngineConfig.MinTradeConfidence)
	}
}

// TestLoadConfigFromFile tests JSON overrides layered over defaults
func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"momentum": {
			"fast_period": 5,
			"slow_period": 30,
			"slope_window": 5,
			"separation_threshold": 0.5,
			"confirmation_bars": 3,
			"breach_threshold": 0.3,
			"volume_avg_period": 20,
			"volume_ratio": 2.0,
			"retest_tolerance": 0.3
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.MomentumConfig.FastPeriod != 5 || cfg.MomentumConfig.SlowPeriod != 30 {
		t.Errorf("Expected periods 5/30 from the file, got %d/%d", cfg.MomentumConfig.FastPeriod, cfg.MomentumConfig.SlowPeriod)
	}
	// Sections absent from the file keep their defaults.
	if cfg.RangeDirectionConfig.Period != 25 {
		t.Errorf("Expected default range direction period 25, got %d", cfg.RangeDirectionConfig.Period)
	}
}

// TestEnvOverrides tests TREND_* environment variables
func TestEnvOverrides(t *testing.T) {
	t.Setenv("TREND_MIN_TRADE_CONFIDENCE", "0.7")
	t.Setenv("TREND_MOMENTUM_FAST_PERIOD", "7")
	t.Setenv("TREND_CACHE_TTL", "90s")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.EngineConfig.MinTradeConfidence != 0.7 {
		t.Errorf("Expected trade confidence 0.7 from env, got %f", cfg.EngineConfig.MinTradeConfidence)
	}
	if cfg.MomentumConfig.FastPeriod != 7 {
		t.Errorf("Expected fast period 7 from env, got %d", cfg.MomentumConfig.FastPeriod)
	}
	if cfg.EngineConfig.CacheTTL != 90*time.Second {
		t.Errorf("Expected cache TTL 90s from env, got %s", cfg.EngineConfig.CacheTTL)
	}
}

// TestValidateRejectsInvertedPeriods tests momentum period validation
func TestValidateRejectsInvertedPeriods(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MomentumConfig.FastPeriod = 30
	cfg.MomentumConfig.SlowPeriod = 9

	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error when fast >= slow")
	}
}

// TestValidateRejectsBadWeights tests the weight-sum constraint
func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EngineConfig.Weights = map[string]float64{"momentum": 1.5, "divergence": 0.5}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error when weights sum past 1.0")
	}

	cfg = DefaultConfig()
	cfg.EngineConfig.Weights = map[string]float64{"momentum": -0.5, "divergence": 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error for a negative weight")
	}
}

// TestValidateRejectsBadThreshold tests the alignment threshold range
func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeframeConfig.AlignmentThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error for a threshold above 1")
	}
}
