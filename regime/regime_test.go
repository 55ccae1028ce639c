package regime

import (
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func bar(ts time.Time, o, h, l, c float64) core.Bar {
	return core.Bar{Symbol: "TEST", Timestamp: ts, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: 1000}
}

func TestATRRegimeClassifierReturnsNormalDuringWarmup(t *testing.T) {
	clf := NewATRRegimeClassifier(14, 50, decimal.NewFromFloat(0.75), decimal.NewFromFloat(1.50))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf []core.Bar
	for i := 0; i < 5; i++ {
		buf = append(buf, bar(base.Add(time.Duration(i)*time.Hour), 100, 101, 99, 100))
		if got := clf.Update(buf); got != VolatilityNormal {
			t.Fatalf("expected NORMAL during warmup at bar %d, got %s", i, got)
		}
	}
}

func TestATRRegimeClassifierDetectsHighVolatility(t *testing.T) {
	clf := NewATRRegimeClassifier(3, 50, decimal.NewFromFloat(0.75), decimal.NewFromFloat(1.50))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf []core.Bar
	// Three quiet bars to seed the rolling mean.
	for i := 0; i < 3; i++ {
		buf = append(buf, bar(base.Add(time.Duration(i)*time.Hour), 100, 101, 99, 100))
		clf.Update(buf)
	}
	// A much wider bar should push the ratio above the high threshold.
	buf = append(buf, bar(base.Add(3*time.Hour), 100, 130, 70, 100))
	if got := clf.Update(buf); got != VolatilityHigh {
		t.Fatalf("expected HIGH volatility after a wide-range bar, got %s", got)
	}
}

func TestADXClassifierStartsRanging(t *testing.T) {
	clf := NewADXClassifier(14)
	if got := clf.Classify(); got != TrendRanging {
		t.Fatalf("expected RANGING before any bars, got %s", got)
	}
}

func TestADXClassifierSeedsAfterPeriodBars(t *testing.T) {
	clf := NewADXClassifier(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := bar(base, 100, 101, 99, 100)
	price := 100.0
	for i := 1; i <= 10; i++ {
		price += 2
		cur := bar(base.Add(time.Duration(i)*time.Hour), price-1, price+1, price-2, price)
		clf.Update(cur, prev)
		prev = cur
	}
	if clf.ADX().IsZero() {
		t.Fatalf("expected a nonzero ADX after a sustained directional run")
	}
}

func TestRegimeClassifierMatrixMapsRangingRow(t *testing.T) {
	rt, ok := regimeMatrix[regimeKey{TrendRanging, VolatilityNormal}]
	if !ok || rt != RegimeRangingNormal {
		t.Fatalf("expected RANGING/NORMAL -> RANGING_NORMAL, got %s ok=%v", rt, ok)
	}
	rt2, ok2 := regimeMatrix[regimeKey{TrendRanging, VolatilityHigh}]
	if !ok2 || rt2 != RegimeChoppy {
		t.Fatalf("expected RANGING/HIGH -> CHOPPY, got %s ok=%v", rt2, ok2)
	}
}

type stubStrategy struct {
	symbol string
	signal core.Signal
	emit   bool
	calls  int
}

func (s *stubStrategy) Symbol() string              { return s.symbol }
func (s *stubStrategy) CurrentATR() decimal.Decimal { return decimal.Zero }
func (s *stubStrategy) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.calls++
	return s.signal, s.emit
}

func TestRegimeGatedStrategyAlwaysCallsInnerButGatesSignal(t *testing.T) {
	inner := &stubStrategy{symbol: "TEST", signal: core.Signal{Symbol: "TEST", Variant: core.SignalLong}, emit: true}
	gated := NewRegimeGatedStrategy(inner, []RegimeType{RegimeStrongTrend}, 14, 14, 50)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, ok := gated.CalculateSignals(bar(base, 100, 101, 99, 100))
	if inner.calls != 1 {
		t.Fatalf("expected inner strategy to be called exactly once, got %d", inner.calls)
	}
	// Fresh classifier starts in a ranging/normal regime, not STRONG_TREND,
	// so the signal must be suppressed even though the inner strategy fired.
	if ok {
		t.Fatalf("expected the signal to be gated out on the first bar")
	}
}
