package metrics

import (
	"math"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AnnualizationFactors maps a timeframe string to sqrt(bars_per_year),
// the multiplier Sharpe/Sortino apply to a per-bar mean/std ratio. The
// 1h/4h entries assume a 6.5-hour US equity session: sqrt(252 * 6.5) and
// sqrt(252 * 6.5 / 4).
var AnnualizationFactors = map[string]decimal.Decimal{
	"1m":    decimal.NewFromFloat(313.4964), // sqrt(252 * 390) for stocks
	"1m_fx": decimal.NewFromFloat(602.3952), // sqrt(252 * 1440) for forex
	"5m":    decimal.NewFromFloat(140.1999), // sqrt(252 * 78)
	"15m":   decimal.NewFromFloat(80.9444),  // sqrt(252 * 26)
	"1h":    decimal.NewFromFloat(40.4722),  // sqrt(252 * 6.5)
	"4h":    decimal.NewFromFloat(20.2361),  // sqrt(252 * 1.625)
	"1d":    decimal.NewFromFloat(15.8745),  // sqrt(252)
	"1wk":   decimal.NewFromFloat(7.2111),   // sqrt(52)
	"1mo":   decimal.NewFromFloat(3.4641),   // sqrt(12)
}

var barsPerYear = map[string]float64{
	"1m":  252 * 390,
	"5m":  252 * 78,
	"15m": 252 * 26,
	"1h":  252 * 6.5,
	"4h":  252 * 1.625,
	"1d":  252,
	"1wk": 52,
	"1mo": 12,
}

const defaultAnnFactor = 15.8745

// Result holds every computed performance metric for one backtest run.
type Result struct {
	// PnL
	NetPnL         decimal.Decimal
	TotalReturnPct decimal.Decimal
	CAGR           decimal.Decimal

	// Risk-adjusted
	SharpeRatio  decimal.Decimal
	SortinoRatio decimal.Decimal
	CalmarRatio  decimal.Decimal

	// Drawdown
	MaxDrawdown         decimal.Decimal
	MaxDrawdownPct      decimal.Decimal
	MaxDrawdownDuration int // bars

	// Trade stats
	WinRate        decimal.Decimal
	ProfitFactor   decimal.Decimal
	Expectancy     decimal.Decimal
	TradeCount     int
	AvgHoldingTime int // hours, floored
	AvgRR          decimal.Decimal

	// Exposure
	TotalExposurePct decimal.Decimal
}

// Compute derives Result from an engine's equity log and fill log.
// initialEquity, if nil, defaults to the equity log's first entry.
// Returns a MetricsComputationKind core.Error if equityLog is empty.
func Compute(equityLog []core.EquityLogEntry, fillLog []core.Fill, timeframe string, initialEquity *decimal.Decimal) (Result, error) {
	if len(equityLog) == 0 {
		return Result{}, core.NewError(core.MetricsComputationKind, "empty equity log — cannot compute metrics")
	}

	equities := make([]decimal.Decimal, len(equityLog))
	for i, e := range equityLog {
		equities[i] = e.Equity
	}

	initial := equities[0]
	if initialEquity != nil {
		initial = *initialEquity
	}
	final := equities[len(equities)-1]
	nBars := len(equities)

	netPnL := final.Sub(initial)
	totalReturnPct := decimal.Zero
	if !initial.IsZero() {
		totalReturnPct = netPnL.Div(initial).Mul(hundred)
	}
	cagr := computeCAGR(initial, final, nBars, timeframe)

	returns := computeReturns(equities)

	annFactor, ok := AnnualizationFactors[timeframe]
	if !ok {
		annFactor = decimal.NewFromFloat(defaultAnnFactor)
	}

	sharpe := computeSharpe(returns, annFactor)
	sortino := computeSortino(returns, annFactor)

	maxDD, maxDDPct, maxDDDuration := computeMaxDrawdown(equities)

	calmar := decimal.Zero
	if !maxDDPct.IsZero() {
		calmar = cagr.Div(maxDDPct.Abs())
	}

	stats := computeTradeStats(fillLog)
	exposure := computeExposure(equityLog)

	return Result{
		NetPnL:              netPnL,
		TotalReturnPct:      totalReturnPct,
		CAGR:                cagr,
		SharpeRatio:         sharpe,
		SortinoRatio:        sortino,
		CalmarRatio:         calmar,
		MaxDrawdown:         maxDD,
		MaxDrawdownPct:      maxDDPct,
		MaxDrawdownDuration: maxDDDuration,
		WinRate:             stats.winRate,
		ProfitFactor:        stats.profitFactor,
		Expectancy:          stats.expectancy,
		TradeCount:          stats.tradeCount,
		AvgHoldingTime:      stats.avgHoldingTime,
		AvgRR:               stats.avgRR,
		TotalExposurePct:    exposure,
	}, nil
}

func computeReturns(equities []decimal.Decimal) []decimal.Decimal {
	var returns []decimal.Decimal
	for i := 1; i < len(equities); i++ {
		if !equities[i-1].IsZero() {
			returns = append(returns, equities[i].Sub(equities[i-1]).Div(equities[i-1]))
		}
	}
	return returns
}

func computeSharpe(returns []decimal.Decimal, annFactor decimal.Decimal) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	meanRet := meanDecimal(returns)
	variance := sampleVariance(returns, meanRet)
	if variance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	stdRet := sqrtDecimal(variance)
	if stdRet.IsZero() {
		return decimal.Zero
	}
	return meanRet.Div(stdRet).Mul(annFactor)
}

func computeSortino(returns []decimal.Decimal, annFactor decimal.Decimal) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	meanRet := meanDecimal(returns)

	var downside []decimal.Decimal
	for _, r := range returns {
		if r.LessThan(decimal.Zero) {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return decimal.Zero
	}

	downsideMean := meanDecimal(downside)
	downsideVar := sampleVariance(downside, downsideMean)
	if downsideVar.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	downsideStd := sqrtDecimal(downsideVar)
	if downsideStd.IsZero() {
		return decimal.Zero
	}
	return meanRet.Div(downsideStd).Mul(annFactor)
}

func computeMaxDrawdown(equities []decimal.Decimal) (decimal.Decimal, decimal.Decimal, int) {
	if len(equities) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	peak := equities[0]
	maxDD := decimal.Zero
	maxDDPct := decimal.Zero
	maxDuration := 0
	currentDuration := 0

	for _, equity := range equities {
		if equity.GreaterThan(peak) {
			peak = equity
			currentDuration = 0
		} else {
			currentDuration++
		}

		dd := peak.Sub(equity)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
		ddPct := decimal.Zero
		if peak.GreaterThan(decimal.Zero) {
			ddPct = dd.Div(peak).Mul(hundred)
		}
		if ddPct.GreaterThan(maxDDPct) {
			maxDDPct = ddPct
		}
		if currentDuration > maxDuration {
			maxDuration = currentDuration
		}
	}

	return maxDD, maxDDPct, maxDuration
}

func computeCAGR(initial, final decimal.Decimal, nBars int, timeframe string) decimal.Decimal {
	if initial.LessThanOrEqual(decimal.Zero) || nBars <= 0 {
		return decimal.Zero
	}

	bpy, ok := barsPerYear[timeframe]
	if !ok {
		bpy = 252
	}
	years := float64(nBars) / bpy
	if years <= 0 {
		return decimal.Zero
	}

	ratio := final.Div(initial)
	if ratio.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(-1)
	}

	ratioF, _ := ratio.Float64()
	cagrFloat := math.Pow(ratioF, 1.0/years) - 1.0
	if math.IsNaN(cagrFloat) || math.IsInf(cagrFloat, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(cagrFloat).Round(6)
}

func computeExposure(equityLog []core.EquityLogEntry) decimal.Decimal {
	if len(equityLog) == 0 {
		return decimal.Zero
	}
	inMarket := 0
	for _, e := range equityLog {
		if !e.Cash.Equal(e.Equity) {
			inMarket++
		}
	}
	return decimal.NewFromInt(int64(inMarket)).Div(decimal.NewFromInt(int64(len(equityLog)))).Mul(hundred)
}

func meanDecimal(xs []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs))))
}

// sampleVariance computes the (n-1)-denominator sample variance of xs
// around mean.
func sampleVariance(xs []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	sumSq := decimal.Zero
	for _, x := range xs {
		d := x.Sub(mean)
		sumSq = sumSq.Add(d.Mul(d))
	}
	return sumSq.Div(decimal.NewFromInt(int64(len(xs) - 1)))
}

// sqrtDecimal round-trips through float64 — decimal.Decimal has no general
// square root, and Newton's-method precision isn't worth it for a
// dispersion statistic that only ever feeds a ratio.
func sqrtDecimal(v decimal.Decimal) decimal.Decimal {
	f, _ := v.Float64()
	if f <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Sqrt(f))
}
