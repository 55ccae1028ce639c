package portfolio

import (
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOpenLongThenCloseRealizesPnL(t *testing.T) {
	p := New(dec("10000"), dec("0.25"))

	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("100")})
	if !p.Cash().Equal(dec("9000")) {
		t.Fatalf("cash after open = %v, want 9000", p.Cash())
	}
	if !p.PositionQuantity("AAPL").Equal(dec("10")) {
		t.Fatalf("position qty = %v, want 10", p.PositionQuantity("AAPL"))
	}

	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideSell, Quantity: dec("10"), FillPrice: dec("110")})
	if p.HasPosition("AAPL") {
		t.Fatal("expected position fully closed")
	}
	// closed_qty * (fill - entry) = 10 * 10 = 100, no friction
	if !p.TotalRealizedPnL().Equal(dec("100")) {
		t.Fatalf("realized pnl = %v, want 100", p.TotalRealizedPnL())
	}
	wantCash := dec("9000").Add(dec("1100"))
	if !p.Cash().Equal(wantCash) {
		t.Fatalf("cash after close = %v, want %v", p.Cash(), wantCash)
	}
}

func TestFrictionReducesRealizedPnL(t *testing.T) {
	p := New(dec("10000"), dec("0.25"))

	p.ProcessFill(core.Fill{
		Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("100"),
		Commission: dec("1"),
	})
	p.ProcessFill(core.Fill{
		Symbol: "AAPL", Side: core.SideSell, Quantity: dec("10"), FillPrice: dec("110"),
		Commission: dec("1"),
	})

	// gross 100, minus 1 opening friction share, minus 1 closing friction = 98
	if !p.TotalRealizedPnL().Equal(dec("98")) {
		t.Fatalf("realized pnl = %v, want 98", p.TotalRealizedPnL())
	}
}

func TestWeightedAverageEntryOnAdd(t *testing.T) {
	p := New(dec("10000"), dec("0.25"))

	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("100")})
	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("120")})

	pos, ok := p.Position("AAPL")
	if !ok {
		t.Fatal("expected open position")
	}
	if !pos.AvgEntryPrice.Equal(dec("110")) {
		t.Fatalf("avg entry = %v, want 110", pos.AvgEntryPrice)
	}
	if !pos.Quantity.Equal(dec("20")) {
		t.Fatalf("qty = %v, want 20", pos.Quantity)
	}
}

func TestFlipThroughZero(t *testing.T) {
	p := New(dec("10000"), dec("0.25"))

	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("100")})
	// sell 15: closes the 10 long and opens a 5-unit short at 90
	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideSell, Quantity: dec("15"), FillPrice: dec("90")})

	pos, ok := p.Position("AAPL")
	if !ok {
		t.Fatal("expected a flipped-open short position")
	}
	if pos.Side != core.SideSell {
		t.Fatalf("side = %v, want SELL", pos.Side)
	}
	if !pos.Quantity.Equal(dec("5")) {
		t.Fatalf("qty = %v, want 5", pos.Quantity)
	}
	if !pos.AvgEntryPrice.Equal(dec("90")) {
		t.Fatalf("entry = %v, want 90", pos.AvgEntryPrice)
	}
}

// Force-liquidation must stamp the bar's timestamp (never the wall clock)
// and must zero out the position.
func TestForceLiquidationUsesBarTimestamp(t *testing.T) {
	p := New(dec("110"), dec("0.25"))
	p.ProcessFill(core.Fill{Symbol: "AAPL", Side: core.SideBuy, Quantity: dec("10"), FillPrice: dec("100")})

	barTime := time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC)
	prices := map[string]decimal.Decimal{"AAPL": dec("1")}

	// cash = 110 - 1000 = -890; position value = 10 * (1 - 100) = -990
	if !p.Equity(prices).Equal(dec("-1880")) {
		t.Fatalf("equity before liquidation = %v, want -1880", p.Equity(prices))
	}

	flagged := p.CheckMargin(prices)
	if len(flagged) != 1 || flagged[0] != "AAPL" {
		t.Fatalf("expected AAPL flagged for margin violation, got %v", flagged)
	}

	fill, ok := p.ForceLiquidate("AAPL", dec("1"), barTime)
	if !ok {
		t.Fatal("expected liquidation to occur")
	}
	if !fill.Timestamp.Equal(barTime) {
		t.Fatalf("liquidation fill timestamp = %v, want %v", fill.Timestamp, barTime)
	}
	if fill.Side != core.SideSell {
		t.Fatalf("liquidation side = %v, want SELL", fill.Side)
	}
	if p.HasPosition("AAPL") {
		t.Fatal("expected position closed after liquidation")
	}
	if p.ForcedLiquidationCount() != 1 {
		t.Fatalf("forced liquidation count = %d, want 1", p.ForcedLiquidationCount())
	}
}

func TestAppendSnapshotIsOnlyWayToExtendEquityLog(t *testing.T) {
	p := New(dec("1000"), dec("0.25"))
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	p.AppendSnapshot(ts, map[string]decimal.Decimal{"AAPL": dec("100")})

	log := p.EquityLog()
	if len(log) != 1 {
		t.Fatalf("equity log len = %d, want 1", len(log))
	}
	if !log[0].Timestamp.Equal(ts) {
		t.Fatalf("snapshot timestamp = %v, want %v", log[0].Timestamp, ts)
	}
	if !p.LastEquity().Equal(dec("1000")) {
		t.Fatalf("last equity = %v, want 1000", p.LastEquity())
	}
}

func TestValidateOrderRejectsInsufficientCash(t *testing.T) {
	p := New(dec("100"), dec("0.25"))
	ok, reason := p.ValidateOrder("AAPL", core.SideBuy, dec("10"), dec("50"), 1000)
	if ok {
		t.Fatal("expected rejection for insufficient cash")
	}
	if reason == "" {
		t.Fatal("expected a rejection reason")
	}
}

func TestValidateOrderRejectsZeroVolumeBar(t *testing.T) {
	p := New(dec("100000"), dec("0.25"))
	ok, _ := p.ValidateOrder("AAPL", core.SideBuy, dec("1"), dec("50"), 0)
	if ok {
		t.Fatal("expected rejection for zero-volume bar")
	}
}

func TestEquityIdentityHoldsWithNoPositions(t *testing.T) {
	p := New(dec("5000"), dec("0.25"))
	if !p.Equity(map[string]decimal.Decimal{}).Equal(dec("5000")) {
		t.Fatalf("equity with no positions should equal cash")
	}
}
