package benchmark

import (
	"math"
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func bar(ts time.Time, close float64) core.Bar {
	return core.Bar{
		Symbol: "AAPL", Timestamp: ts,
		Open: d(close), High: d(close), Low: d(close), Close: d(close),
		Volume: 1000, Timeframe: "1d",
	}
}

func eq(ts time.Time, equity float64) core.EquityLogEntry {
	return core.EquityLogEntry{Timestamp: ts, Equity: d(equity), Cash: d(equity)}
}

func TestComputeEquityEmptyBars(t *testing.T) {
	if out := ComputeEquity(nil, d(10000)); out != nil {
		t.Fatalf("expected nil for empty bars, got %v", out)
	}
}

func TestComputeEquityNonPositiveEntryPrice(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{bar(base, 0)}
	if out := ComputeEquity(bars, d(10000)); out != nil {
		t.Fatalf("expected nil for non-positive entry close, got %v", out)
	}
}

func TestComputeEquityBuyAndHold(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		bar(base, 100),
		bar(base.AddDate(0, 0, 1), 110),
		bar(base.AddDate(0, 0, 2), 90),
	}
	curve := ComputeEquity(bars, d(10000))
	if len(curve) != 3 {
		t.Fatalf("expected 3 equity points, got %d", len(curve))
	}
	// 100 shares bought at 100, held flat through every subsequent bar.
	if !curve[0].Equity.Equal(d(10000)) {
		t.Fatalf("expected entry equity 10000, got %s", curve[0].Equity)
	}
	if !curve[1].Equity.Equal(d(11000)) {
		t.Fatalf("expected equity 11000 on the up bar, got %s", curve[1].Equity)
	}
	if !curve[2].Equity.Equal(d(9000)) {
		t.Fatalf("expected equity 9000 on the down bar, got %s", curve[2].Equity)
	}
}

func TestComputeMetricsIdenticalCurvesGiveBetaOneAlphaZero(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	equities := []float64{10000, 10500, 10200, 11000, 10800}

	var stratLog []core.EquityLogEntry
	var benchCurve []EquityPoint
	for i, e := range equities {
		ts := base.AddDate(0, 0, i)
		stratLog = append(stratLog, eq(ts, e))
		benchCurve = append(benchCurve, EquityPoint{Timestamp: ts, Equity: d(e)})
	}

	m := ComputeMetrics(stratLog, benchCurve, d(10000))

	if math.Abs(m.Beta-1) > 1e-9 {
		t.Fatalf("expected beta 1 for identical curves, got %v", m.Beta)
	}
	if math.Abs(m.Alpha) > 1e-9 {
		t.Fatalf("expected alpha ~0 for identical curves, got %v", m.Alpha)
	}
	if math.Abs(m.Correlation-1) > 1e-9 {
		t.Fatalf("expected correlation 1 for identical curves, got %v", m.Correlation)
	}
	if math.Abs(m.InformationRatio) > 1e-9 {
		t.Fatalf("expected information ratio ~0 for identical curves, got %v", m.InformationRatio)
	}
	if math.Abs(m.StrategyReturnPct-m.BenchmarkReturnPct) > 1e-9 {
		t.Fatalf("expected equal total returns for identical curves, got strat=%v bench=%v", m.StrategyReturnPct, m.BenchmarkReturnPct)
	}
}

func TestComputeMetricsOutperformanceGivesPositiveAlpha(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stratEquities := []float64{10000, 10600, 11200, 12000}
	benchEquities := []float64{10000, 10100, 10200, 10300}

	var stratLog []core.EquityLogEntry
	var benchCurve []EquityPoint
	for i := range stratEquities {
		ts := base.AddDate(0, 0, i)
		stratLog = append(stratLog, eq(ts, stratEquities[i]))
		benchCurve = append(benchCurve, EquityPoint{Timestamp: ts, Equity: d(benchEquities[i])})
	}

	m := ComputeMetrics(stratLog, benchCurve, d(10000))

	if m.StrategyReturnPct <= m.BenchmarkReturnPct {
		t.Fatalf("expected strategy to outperform benchmark, got strat=%v bench=%v", m.StrategyReturnPct, m.BenchmarkReturnPct)
	}
}

func TestComputeMetricsFewerThanTwoAlignedBarsReturnsTotalReturnOnly(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stratLog := []core.EquityLogEntry{eq(base, 11000)}
	benchCurve := []EquityPoint{{Timestamp: base, Equity: d(10500)}}

	m := ComputeMetrics(stratLog, benchCurve, d(10000))

	if m.Alpha != 0 || m.Beta != 0 || m.InformationRatio != 0 || m.Correlation != 0 {
		t.Fatalf("expected zeroed relative stats for a single aligned bar, got %+v", m)
	}
	if math.Abs(m.StrategyReturnPct-10) > 1e-9 {
		t.Fatalf("expected strategy return 10%%, got %v", m.StrategyReturnPct)
	}
	if math.Abs(m.BenchmarkReturnPct-5) > 1e-9 {
		t.Fatalf("expected benchmark return 5%%, got %v", m.BenchmarkReturnPct)
	}
}

func TestComputeMetricsEmptyLogsReturnZeroValue(t *testing.T) {
	m := ComputeMetrics(nil, nil, d(10000))
	if (m != Metrics{}) {
		t.Fatalf("expected zero-value Metrics for empty logs, got %+v", m)
	}
}
