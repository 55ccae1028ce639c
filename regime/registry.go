package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/smc"
	"github.com/tthiemann260-coder/apex-backtest-sub000/strategy"
)

// RegisterDefaults adds a "gated_ict" factory to r: an ICTStrategy wrapped
// with RegimeGatedStrategy. Kept here rather than in smc.RegisterDefaults
// to avoid smc depending on its sibling regime package.
func RegisterDefaults(r *strategy.Registry) error {
	return r.Register("gated_ict", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		atrPeriod, adxPeriod, regimeLookback := 14, 14, 50
		if v, ok := params["atr_period"].(int); ok {
			atrPeriod = v
		}
		if v, ok := params["adx_period"].(int); ok {
			adxPeriod = v
		}
		if v, ok := params["regime_lookback"].(int); ok {
			regimeLookback = v
		}

		allowed := []RegimeType{RegimeStrongTrend, RegimeModerateTrend}
		if raw, ok := params["allowed_regimes"].([]string); ok && len(raw) > 0 {
			allowed = allowed[:0]
			for _, s := range raw {
				allowed = append(allowed, RegimeType(s))
			}
		}

		ictCfg := smc.DefaultICTConfig()
		inner, err := smc.NewICTStrategy(symbol, timeframe, ictCfg)
		if err != nil {
			return nil, err
		}

		return NewRegimeGatedStrategy(inner, allowed, atrPeriod, adxPeriod, regimeLookback), nil
	})
}
