package analytics

import (
	"math"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/metrics"
)

// RollingSharpePoint is one sliding-window Sharpe observation.
type RollingSharpePoint struct {
	Timestamp     time.Time
	RollingSharpe float64
}

// ComputeRollingSharpe computes a sliding-window Sharpe ratio over the
// equity log's bar-to-bar returns. Deliberately float64 throughout — this
// is a rolling visualization series, not a ledger figure.
func ComputeRollingSharpe(equityLog []core.EquityLogEntry, window int, timeframe string) []RollingSharpePoint {
	if len(equityLog) < window+1 {
		return nil
	}

	returns := make([]float64, 0, len(equityLog)-1)
	for i := 1; i < len(equityLog); i++ {
		prev, _ := equityLog[i-1].Equity.Float64()
		curr, _ := equityLog[i].Equity.Float64()
		if prev != 0 {
			returns = append(returns, curr/prev-1.0)
		} else {
			returns = append(returns, 0.0)
		}
	}

	annFactor := 15.8745
	if f, ok := metrics.AnnualizationFactors[timeframe]; ok {
		annFactor, _ = f.Float64()
	}

	var out []RollingSharpePoint
	for i := window - 1; i < len(returns); i++ {
		windowReturns := returns[i-window+1 : i+1]
		n := len(windowReturns)

		var sum float64
		for _, r := range windowReturns {
			sum += r
		}
		meanR := sum / float64(n)

		var variance float64
		if n > 1 {
			var sumSq float64
			for _, r := range windowReturns {
				d := r - meanR
				sumSq += d * d
			}
			variance = sumSq / float64(n-1)
		}
		stdR := math.Sqrt(variance)

		sharpe := 0.0
		if stdR > 0 {
			sharpe = (meanR / stdR) * annFactor
		}

		out = append(out, RollingSharpePoint{
			Timestamp:     equityLog[i+1].Timestamp,
			RollingSharpe: sharpe,
		})
	}

	return out
}

// RollingDrawdownPoint is one sliding-window max-drawdown observation.
type RollingDrawdownPoint struct {
	Timestamp          time.Time
	RollingDrawdownPct float64
}

// ComputeRollingDrawdown computes, for each window-sized trailing slice of
// the equity curve, the worst drawdown percentage observed inside it.
func ComputeRollingDrawdown(equityLog []core.EquityLogEntry, window int) []RollingDrawdownPoint {
	if len(equityLog) < window {
		return nil
	}

	equities := make([]float64, len(equityLog))
	for i, e := range equityLog {
		equities[i], _ = e.Equity.Float64()
	}

	var out []RollingDrawdownPoint
	for i := window - 1; i < len(equities); i++ {
		windowEq := equities[i-window+1 : i+1]
		peak := windowEq[0]
		maxDDPct := 0.0

		for _, eq := range windowEq {
			if eq > peak {
				peak = eq
			}
			if peak > 0 {
				ddPct := (eq - peak) / peak * 100
				if ddPct < maxDDPct {
					maxDDPct = ddPct
				}
			}
		}

		out = append(out, RollingDrawdownPoint{
			Timestamp:          equityLog[i].Timestamp,
			RollingDrawdownPct: maxDDPct,
		})
	}

	return out
}
