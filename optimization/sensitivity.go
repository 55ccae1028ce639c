package optimization

import (
	"math"
	"sort"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/metrics"
)

// DefaultPerturbations is the default sweep: baseline plus six
// symmetric perturbations.
var DefaultPerturbations = []float64{-30, -20, -10, 0, 10, 20, 30}

// SensitivityPoint is a single (parameter, perturbation) measurement.
type SensitivityPoint struct {
	ParamName       string
	PerturbationPct float64
	ParamValue      float64
	Sharpe          float64
	NetPnL          float64
	WinRate         float64
	MaxDrawdownPct  float64
}

// SensitivityResult aggregates the full parameter x perturbation grid.
type SensitivityResult struct {
	Points []SensitivityPoint
	// ParamCV is the coefficient of variation (std/|mean|) of Sharpe
	// across a parameter's perturbations; 1.0 when the mean Sharpe is too
	// close to zero to divide by.
	ParamCV map[string]float64
	// OverallStability is mean(max(0, 1-CV)) across every swept
	// parameter; 1.0 is perfectly stable, 0.0 is maximally unstable.
	OverallStability float64
	BaselineSharpe   float64
}

// RunSensitivity perturbs each entry of baseParams independently by every
// percentage in perturbations (holding every other parameter at its
// baseline value), re-running the full bar sequence through a fresh
// strategy instance each time. newStrategy receives the modified
// parameter set and must build a strategy from it. A baseline (0%)
// point is re-run once per swept parameter rather than shared across
// parameters: the per-parameter loop recomputes pct==0 inside each
// parameter's own sweep rather than caching it once.
func RunSensitivity(bars []core.Bar, cfg RunConfig, newStrategy func(params map[string]float64) (core.Strategy, error), baseParams map[string]float64, perturbations []float64) (SensitivityResult, error) {
	if perturbations == nil {
		perturbations = DefaultPerturbations
	}

	// Only non-zero numeric parameters are perturbable — a zero baseline
	// has no meaningful percentage multiplier.
	names := make([]string, 0, len(baseParams))
	for name, v := range baseParams {
		if v != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var points []SensitivityPoint
	baselineSharpe := 0.0
	baselineSet := false

	for _, name := range names {
		baseValue := baseParams[name]

		for _, pct := range perturbations {
			multiplier := 1.0 + pct/100.0
			newValue := baseValue * multiplier

			modified := make(map[string]float64, len(baseParams))
			for k, v := range baseParams {
				modified[k] = v
			}
			modified[name] = newValue

			strat, err := newStrategy(modified)
			if err != nil {
				return SensitivityResult{}, err
			}
			res := runSlice(bars, cfg, strat)
			m, mErr := metrics.Compute(res.EquityLog, res.FillLog, cfg.Timeframe, nil)

			var sharpe, netPnL, winRate, maxDD float64
			if mErr == nil {
				sharpe, _ = m.SharpeRatio.Float64()
				netPnL, _ = m.NetPnL.Float64()
				winRate, _ = m.WinRate.Float64()
				maxDD, _ = m.MaxDrawdownPct.Float64()
			}

			if pct == 0 && !baselineSet {
				baselineSharpe = sharpe
				baselineSet = true
			}

			points = append(points, SensitivityPoint{
				ParamName:       name,
				PerturbationPct: pct,
				ParamValue:      newValue,
				Sharpe:          sharpe,
				NetPnL:          netPnL,
				WinRate:         winRate,
				MaxDrawdownPct:  maxDD,
			})
		}
	}

	paramCV := make(map[string]float64, len(names))
	for _, name := range names {
		var sharpes []float64
		for _, p := range points {
			if p.ParamName == name {
				sharpes = append(sharpes, p.Sharpe)
			}
		}
		paramCV[name] = coefficientOfVariation(sharpes)
	}

	overall := 0.0
	if len(paramCV) > 0 {
		var sum float64
		for _, cv := range paramCV {
			sum += math.Max(0, 1-cv)
		}
		overall = sum / float64(len(paramCV))
	}

	return SensitivityResult{
		Points:           points,
		ParamCV:          paramCV,
		OverallStability: overall,
		BaselineSharpe:   baselineSharpe,
	}, nil
}

// coefficientOfVariation returns std/|mean|, or 1.0 (maximally unstable)
// when the mean is too close to zero to divide by meaningfully.
func coefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if math.Abs(mean) <= 1e-10 {
		return 1.0
	}
	var sqSum float64
	for _, v := range values {
		d := v - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / float64(len(values)))
	return std / math.Abs(mean)
}
