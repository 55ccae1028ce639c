package benchmark

import (
	"math"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// EquityPoint is one bar's buy-and-hold mark-to-market value.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
}

// ComputeEquity builds a buy-and-hold equity curve for bars: invest
// initialEquity entirely at the first bar's close and hold the resulting
// share count for every subsequent bar. Returns nil if bars is empty or
// the first close is non-positive.
func ComputeEquity(bars []core.Bar, initialEquity decimal.Decimal) []EquityPoint {
	if len(bars) == 0 {
		return nil
	}
	entryPrice := bars[0].Close
	if entryPrice.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	shares := initialEquity.Div(entryPrice)
	out := make([]EquityPoint, len(bars))
	for i, bar := range bars {
		out[i] = EquityPoint{Timestamp: bar.Timestamp, Equity: shares.Mul(bar.Close)}
	}
	return out
}

// Metrics holds relative-performance statistics comparing a strategy's
// equity curve against a buy-and-hold benchmark over the same window.
type Metrics struct {
	BenchmarkReturnPct   float64
	BenchmarkFinalEquity float64

	Alpha            float64
	Beta             float64
	InformationRatio float64
	Correlation      float64

	StrategyReturnPct float64
}

const annualizationDays = 252.0
const nearZero = 1e-20

// ComputeMetrics derives Alpha/Beta/Information-Ratio/correlation from a
// strategy equity log and a benchmark equity curve, aligned to their
// shorter common length. All variance/covariance statistics use
// population (not sample) variance, annualized assuming 252 trading
// periods per year regardless of the series' actual timeframe.
func ComputeMetrics(strategyEquityLog []core.EquityLogEntry, benchmarkEquityLog []EquityPoint, initialEquity decimal.Decimal) Metrics {
	initEq, _ := initialEquity.Float64()

	strat := make([]float64, len(strategyEquityLog))
	for i, e := range strategyEquityLog {
		strat[i], _ = e.Equity.Float64()
	}
	bench := make([]float64, len(benchmarkEquityLog))
	for i, e := range benchmarkEquityLog {
		bench[i], _ = e.Equity.Float64()
	}

	n := len(strat)
	if len(bench) < n {
		n = len(bench)
	}
	if n < 2 {
		return partialMetrics(strat, bench, initEq)
	}
	strat = strat[:n]
	bench = bench[:n]

	stratReturns := barToBarReturns(strat)
	benchReturns := barToBarReturns(bench)

	m := len(stratReturns)
	if len(benchReturns) < m {
		m = len(benchReturns)
	}
	if m < 2 {
		return totalReturnOnlyMetrics(strat, bench, initEq)
	}
	stratReturns = stratReturns[:m]
	benchReturns = benchReturns[:m]

	meanS := meanFloat(stratReturns)
	meanB := meanFloat(benchReturns)

	varB := populationVariance(benchReturns, meanB)
	varS := populationVariance(stratReturns, meanS)
	covSB := populationCovariance(stratReturns, meanS, benchReturns, meanB)

	beta := 0.0
	if math.Abs(varB) > nearZero {
		beta = covSB / varB
	}

	alpha := (meanS - beta*meanB) * annualizationDays

	stdS, stdB := 0.0, 0.0
	if varS > 0 {
		stdS = math.Sqrt(varS)
	}
	if varB > 0 {
		stdB = math.Sqrt(varB)
	}
	correlation := 0.0
	if stdS*stdB > nearZero {
		correlation = covSB / (stdS * stdB)
	}

	activeReturns := make([]float64, m)
	for i := range activeReturns {
		activeReturns[i] = stratReturns[i] - benchReturns[i]
	}
	meanActive := meanFloat(activeReturns)
	trackingVar := populationVariance(activeReturns, meanActive)
	trackingError := 0.0
	if trackingVar > 0 {
		trackingError = math.Sqrt(trackingVar)
	}

	informationRatio := 0.0
	if trackingError > nearZero {
		informationRatio = (meanActive * math.Sqrt(annualizationDays)) / trackingError
	}

	return Metrics{
		BenchmarkReturnPct:   (bench[len(bench)-1]/initEq - 1) * 100,
		BenchmarkFinalEquity: bench[len(bench)-1],
		Alpha:                alpha,
		Beta:                 beta,
		InformationRatio:     informationRatio,
		Correlation:          correlation,
		StrategyReturnPct:    (strat[len(strat)-1]/initEq - 1) * 100,
	}
}

// partialMetrics handles the fewer-than-2-aligned-bars case: only total
// returns are meaningful.
func partialMetrics(strat, bench []float64, initEq float64) Metrics {
	stratRet, benchRet := 0.0, 0.0
	if len(strat) > 0 {
		stratRet = (strat[len(strat)-1]/initEq - 1) * 100
	}
	finalBench := 0.0
	if len(bench) > 0 {
		benchRet = (bench[len(bench)-1]/initEq - 1) * 100
		finalBench = bench[len(bench)-1]
	}
	return Metrics{
		BenchmarkReturnPct:   benchRet,
		BenchmarkFinalEquity: finalBench,
		StrategyReturnPct:    stratRet,
	}
}

// totalReturnOnlyMetrics handles the fewer-than-2-aligned-returns case:
// Alpha/Beta/IR/correlation stay zero, only total returns are reported.
func totalReturnOnlyMetrics(strat, bench []float64, initEq float64) Metrics {
	return Metrics{
		BenchmarkReturnPct:   (bench[len(bench)-1]/initEq - 1) * 100,
		BenchmarkFinalEquity: bench[len(bench)-1],
		StrategyReturnPct:    (strat[len(strat)-1]/initEq - 1) * 100,
	}
}

func barToBarReturns(equities []float64) []float64 {
	var out []float64
	for i := 1; i < len(equities); i++ {
		if equities[i-1] != 0 {
			out = append(out, equities[i]/equities[i-1]-1)
		}
	}
	return out
}

func meanFloat(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationVariance(xs []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}

func populationCovariance(xs []float64, meanX float64, ys []float64, meanY float64) float64 {
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}
	return sum / float64(len(xs))
}
