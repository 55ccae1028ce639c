package metrics

import (
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func eq(ts time.Time, equity, cash float64) core.EquityLogEntry {
	return core.EquityLogEntry{Timestamp: ts, Equity: d(equity), Cash: d(cash)}
}

func TestComputeRejectsEmptyEquityLog(t *testing.T) {
	_, err := Compute(nil, nil, "1d", nil)
	if err == nil {
		t.Fatalf("expected an error for an empty equity log")
	}
}

func TestComputeBasicPnLAndDrawdown(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log := []core.EquityLogEntry{
		eq(base, 10000, 10000),
		eq(base.AddDate(0, 0, 1), 11000, 11000),
		eq(base.AddDate(0, 0, 2), 9000, 9000),
		eq(base.AddDate(0, 0, 3), 10500, 10500),
	}
	result, err := Compute(log, nil, "1d", nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !result.NetPnL.Equal(d(500)) {
		t.Fatalf("expected net PnL 500, got %s", result.NetPnL)
	}
	// Peak 11000 -> trough 9000 is the worst drawdown.
	if !result.MaxDrawdown.Equal(d(2000)) {
		t.Fatalf("expected max drawdown 2000, got %s", result.MaxDrawdown)
	}
}

func TestComputeTradeStatsPairsFIFOAndDeductsCommissionOnly(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fills := []core.Fill{
		{Symbol: "AAPL", Timestamp: base, Side: core.SideBuy, Quantity: d(10), FillPrice: d(100), Commission: d(1)},
		{Symbol: "AAPL", Timestamp: base.Add(2 * time.Hour), Side: core.SideSell, Quantity: d(10), FillPrice: d(110), Commission: d(1)},
	}
	log := []core.EquityLogEntry{
		eq(base, 10000, 10000),
		eq(base.Add(2*time.Hour), 10098, 10098),
	}
	result, err := Compute(log, fills, "1h", nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if result.TradeCount != 1 {
		t.Fatalf("expected exactly one round-trip trade, got %d", result.TradeCount)
	}
	// (110-100)*10 - 1 - 1 = 98
	if !result.Expectancy.Equal(d(98)) {
		t.Fatalf("expected expectancy 98, got %s", result.Expectancy)
	}
	if !result.WinRate.Equal(d(100)) {
		t.Fatalf("expected 100%% win rate, got %s", result.WinRate)
	}
}

func TestComputeExposureCountsBarsWithAnOpenPosition(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log := []core.EquityLogEntry{
		eq(base, 10000, 10000),
		eq(base.Add(time.Hour), 10100, 9000),
		eq(base.Add(2*time.Hour), 10100, 10100),
	}
	result, err := Compute(log, nil, "1h", nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// Exactly one of three bars has cash != equity.
	expected := d(100).Div(d(3))
	if !result.TotalExposurePct.Round(6).Equal(expected.Round(6)) {
		t.Fatalf("expected exposure ~33.33%%, got %s", result.TotalExposurePct)
	}
}
