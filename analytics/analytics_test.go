package analytics

import (
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func eq(ts time.Time, equity float64) core.EquityLogEntry {
	return core.EquityLogEntry{Timestamp: ts, Equity: d(equity), Cash: d(equity)}
}

func TestMonthlyReturnsComputesMonthOverMonth(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	log := []core.EquityLogEntry{eq(jan, 10000), eq(feb, 11000)}
	result := MonthlyReturns(log)
	if result[2024][2].Cmp(d(10)) != 0 {
		t.Fatalf("expected February return of 10%%, got %s", result[2024][2])
	}
}

func TestComputeRollingSharpeRequiresWindowPlusOneBars(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var log []core.EquityLogEntry
	for i := 0; i < 5; i++ {
		log = append(log, eq(base.Add(time.Duration(i)*time.Hour), 10000+float64(i)*10))
	}
	if got := ComputeRollingSharpe(log, 20, "1h"); got != nil {
		t.Fatalf("expected nil rolling Sharpe series with too few bars, got %v", got)
	}
}

func TestComputeTradeBreakdownBucketsByEntryHour(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // entry hour 9 -> Pre-Market
	fills := []core.Fill{
		{Symbol: "AAPL", Timestamp: base, Side: core.SideBuy, Quantity: d(10), FillPrice: d(100)},
		{Symbol: "AAPL", Timestamp: base.Add(time.Hour), Side: core.SideSell, Quantity: d(10), FillPrice: d(105)},
	}
	breakdown := ComputeTradeBreakdown(fills)
	if len(breakdown.ByHour) != 1 || breakdown.ByHour[0].Key != "9" {
		t.Fatalf("expected one bucket for hour 9, got %+v", breakdown.ByHour)
	}
	if len(breakdown.BySession) != 1 || breakdown.BySession[0].Key != "Pre-Market" {
		t.Fatalf("expected the Pre-Market session bucket, got %+v", breakdown.BySession)
	}
}

func TestComputeMAEMFELong(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fills := []core.Fill{
		{Symbol: "AAPL", Timestamp: base, Side: core.SideBuy, Quantity: d(10), FillPrice: d(100)},
		{Symbol: "AAPL", Timestamp: base.Add(3 * time.Hour), Side: core.SideSell, Quantity: d(10), FillPrice: d(108)},
	}
	log := []core.EquityLogEntry{
		{Timestamp: base, Equity: d(10000), Prices: map[string]decimal.Decimal{"AAPL": d(100)}},
		{Timestamp: base.Add(time.Hour), Equity: d(9500), Prices: map[string]decimal.Decimal{"AAPL": d(95)}},
		{Timestamp: base.Add(2 * time.Hour), Equity: d(11000), Prices: map[string]decimal.Decimal{"AAPL": d(110)}},
		{Timestamp: base.Add(3 * time.Hour), Equity: d(10800), Prices: map[string]decimal.Decimal{"AAPL": d(108)}},
	}
	result := ComputeMAEMFE(log, fills)
	if len(result) != 1 {
		t.Fatalf("expected exactly one excursion record, got %d", len(result))
	}
	if !result[0].MAE.Equal(d(5)) {
		t.Fatalf("expected MAE 5 (100-95), got %s", result[0].MAE)
	}
	if !result[0].MFE.Equal(d(10)) {
		t.Fatalf("expected MFE 10 (110-100), got %s", result[0].MFE)
	}
}
