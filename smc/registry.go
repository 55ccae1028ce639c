package smc

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/strategy"
)

// RegisterDefaults adds "smc" and "ict" factories to r, built from
// DefaultSMCConfig/DefaultICTConfig with a handful of params overrides.
// Kept here rather than in strategy.Default() to avoid strategy importing
// its sibling smc package.
func RegisterDefaults(r *strategy.Registry) error {
	if err := r.Register("smc", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		cfg := DefaultSMCConfig()
		if v, ok := params["swing_strength"].(int); ok {
			cfg.SwingStrength = v
		}
		if v, ok := params["warmup_bars"].(int); ok {
			cfg.WarmupBars = v
		}
		return NewSMCStrategy(symbol, timeframe, cfg)
	}); err != nil {
		return err
	}

	return r.Register("ict", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		cfg := DefaultICTConfig()
		if v, ok := params["require_ote"].(bool); ok {
			cfg.RequireOTE = v
		}
		if v, ok := params["require_sweep"].(bool); ok {
			cfg.RequireSweep = v
		}
		if v, ok := params["require_idm"].(bool); ok {
			cfg.RequireIDM = v
		}
		if v, ok := params["require_kill_zone"].(bool); ok {
			cfg.RequireKillZone = v
		}
		return NewICTStrategy(symbol, timeframe, cfg)
	})
}
