package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tthiemann260-coder/apex-backtest-sub000/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.InitialCash.IsZero() {
		t.Error("expected non-zero InitialCash")
	}
	if cfg.MaxConcurrentPositions <= 0 {
		t.Errorf("expected MaxConcurrentPositions > 0, got %d", cfg.MaxConcurrentPositions)
	}
}

func TestLoadMissingPathReturnsDefault(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if !cfg.InitialCash.Equal(config.DefaultConfig().InitialCash) {
		t.Errorf("expected default InitialCash, got %s", cfg.InitialCash)
	}
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if !cfg.InitialCash.Equal(config.DefaultConfig().InitialCash) {
		t.Errorf("expected default InitialCash, got %s", cfg.InitialCash)
	}
}

func TestLoadFromFile(t *testing.T) {
	doc := map[string]interface{}{
		"initial_cash":             "50000",
		"margin_requirement":       "1.0",
		"slippage_pct":             "0.0001",
		"spread_pct":               "0.0002",
		"commission_per_trade":     "1.00",
		"commission_per_share":     "0.005",
		"risk_per_trade":           "0.01",
		"atr_multiplier":           "2.0",
		"fallback_risk_pct":        "0.02",
		"max_position_pct":         "0.20",
		"max_concurrent_positions": 3,
		"kelly": map[string]interface{}{
			"lookback":      40,
			"fraction":      "0.5",
			"min_trades":    20,
			"max_kelly_pct": "0.05",
		},
		"router": map[string]interface{}{
			"breakout": "0.6",
			"reversal": "0.4",
		},
		"cache": map[string]interface{}{
			"redis_addr": "localhost:6379",
		},
	}

	f, err := os.CreateTemp(t.TempDir(), "backtest-config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(doc); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := config.Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrentPositions != 3 {
		t.Errorf("expected MaxConcurrentPositions=3, got %d", cfg.MaxConcurrentPositions)
	}
	if cfg.Kelly == nil || cfg.Kelly.Lookback != 40 {
		t.Errorf("expected kelly.lookback=40, got %+v", cfg.Kelly)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("expected cache.redis_addr to round-trip, got %q", cfg.Cache.RedisAddr)
	}
	if cfg.Version == "" {
		t.Error("expected non-empty Version")
	}
}

func TestLoadRejectsUnbalancedRouterWeights(t *testing.T) {
	doc := map[string]interface{}{
		"initial_cash":             "50000",
		"margin_requirement":       "1.0",
		"slippage_pct":             "0.0001",
		"spread_pct":               "0.0002",
		"risk_per_trade":           "0.01",
		"atr_multiplier":           "2.0",
		"fallback_risk_pct":        "0.02",
		"max_position_pct":         "0.20",
		"max_concurrent_positions": 3,
		"router": map[string]interface{}{
			"breakout": "0.6",
			"reversal": "0.6",
		},
	}

	f, err := os.CreateTemp(t.TempDir(), "backtest-config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(doc); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := config.Load(f.Name()); err == nil {
		t.Fatal("expected error for router weights not summing to 1.0")
	}
}

func TestLoadRejectsNonPositiveInitialCash(t *testing.T) {
	doc := map[string]interface{}{
		"initial_cash":             "0",
		"margin_requirement":       "1.0",
		"slippage_pct":             "0.0001",
		"spread_pct":               "0.0002",
		"risk_per_trade":           "0.01",
		"atr_multiplier":           "2.0",
		"fallback_risk_pct":        "0.02",
		"max_position_pct":         "0.20",
		"max_concurrent_positions": 3,
	}

	f, err := os.CreateTemp(t.TempDir(), "backtest-config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(doc); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := config.Load(f.Name()); err == nil {
		t.Fatal("expected error for zero initial_cash")
	}
}

func TestSMCStrategyConfigFallsBackToDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	smcCfg := cfg.SMCStrategyConfig()
	if smcCfg.SwingStrength != 2 {
		t.Errorf("expected default SwingStrength=2, got %d", smcCfg.SwingStrength)
	}
}

func TestICTStrategyConfigFallsBackToDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	ictCfg := cfg.ICTStrategyConfig()
	if !ictCfg.RequireSweep {
		t.Error("expected default RequireSweep=true")
	}
	if len(ictCfg.ActiveSessions) == 0 {
		t.Error("expected default ActiveSessions to be non-empty")
	}
}
