package optimization

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/engine"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

// RunConfig bundles the friction and capital parameters shared by every
// window/permutation/perturbation a harness in this package constructs.
// Risk is optional — a nil RiskManager falls back to the engine's legacy
// fixed-fractional sizing, same as a direct Engine construction would.
type RunConfig struct {
	Timeframe         string
	InitialCash       decimal.Decimal
	MarginRequirement decimal.Decimal
	Execution         execution.Config
	Risk              core.RiskManager
}

// runSlice builds a fresh Portfolio and execution Handler around an
// already-constructed strategy and drives the engine to exhaustion of
// bars. The caller owns strategy construction so each call gets its own
// instance — reusing one across slices would leak rolling-buffer state
// between windows.
func runSlice(bars []core.Bar, cfg RunConfig, strat core.Strategy) engine.Result {
	port := portfolio.New(cfg.InitialCash, cfg.MarginRequirement)
	exec := execution.New(cfg.Execution)
	eng := engine.New(engine.NewSliceSource(bars), strat, port, exec, cfg.Risk)
	return eng.Run()
}

// clip bounds v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
