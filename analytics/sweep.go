package analytics

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/engine"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/metrics"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

var (
	baseSlippagePct        = decimal.NewFromFloat(0.0001)
	baseCommissionPerTrade = decimal.NewFromFloat(1.00)
	baseCommissionPerShare = decimal.NewFromFloat(0.005)
	baseSpreadPct          = decimal.NewFromFloat(0.0002)
)

// DefaultSweepMultipliers is the default set of friction multipliers.
var DefaultSweepMultipliers = []float64{0.0, 0.5, 1.0, 2.0, 3.0}

// CommissionSweepPoint is one friction multiplier's resulting metrics.
type CommissionSweepPoint struct {
	Multiplier float64
	Sharpe     float64
	NetPnL     float64
	WinRate    float64
	MaxDDPct   float64
}

// RunCommissionSweep re-runs a full backtest once per multiplier, scaling
// every friction parameter (slippage, both commission components, spread)
// by it, and reports the resulting Sharpe/PnL/win-rate/drawdown. newSource
// and newStrategy must each produce a fresh, unconsumed instance — the
// same source or strategy value can never be reused across multipliers,
// since both carry state cleared only by construction.
func RunCommissionSweep(
	newSource func() engine.BarSource,
	newStrategy func() core.Strategy,
	initialCash, marginRequirement decimal.Decimal,
	timeframe string,
	multipliers []float64,
) []CommissionSweepPoint {
	if multipliers == nil {
		multipliers = DefaultSweepMultipliers
	}

	results := make([]CommissionSweepPoint, 0, len(multipliers))
	for _, mult := range multipliers {
		multD := decimal.NewFromFloat(mult)

		cfg := execution.Config{
			SlippagePct:        baseSlippagePct.Mul(multD),
			CommissionPerTrade: baseCommissionPerTrade.Mul(multD),
			CommissionPerShare: baseCommissionPerShare.Mul(multD),
			SpreadPct:          baseSpreadPct.Mul(multD),
		}

		eng := engine.New(newSource(), newStrategy(), portfolio.New(initialCash, marginRequirement), execution.New(cfg), nil)
		result := eng.Run()

		if len(result.EquityLog) == 0 {
			results = append(results, CommissionSweepPoint{Multiplier: mult})
			continue
		}

		m, err := metrics.Compute(result.EquityLog, result.FillLog, timeframe, nil)
		if err != nil {
			results = append(results, CommissionSweepPoint{Multiplier: mult})
			continue
		}

		sharpe, _ := m.SharpeRatio.Float64()
		netPnL, _ := m.NetPnL.Float64()
		winRate, _ := m.WinRate.Float64()
		maxDDPct, _ := m.MaxDrawdownPct.Float64()

		results = append(results, CommissionSweepPoint{
			Multiplier: mult,
			Sharpe:     sharpe,
			NetPnL:     netPnL,
			WinRate:    winRate,
			MaxDDPct:   maxDDPct,
		})
	}

	return results
}
