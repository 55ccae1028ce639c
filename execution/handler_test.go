package execution

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

func zeroFrictionConfig() Config {
	return Config{
		SlippagePct:        decimal.Zero,
		CommissionPerTrade: decimal.Zero,
		CommissionPerShare: decimal.Zero,
		SpreadPct:          decimal.Zero,
	}
}

func TestMarketOrderFillsNextOpen(t *testing.T) {
	// A market order submitted on day1 must fill at day2's open.
	h := New(zeroFrictionConfig())
	day2 := core.Bar{
		Symbol: "AAPL", Timestamp: time.Unix(2, 0),
		Open: dec("102"), High: dec("103"), Low: dec("101"), Close: dec("102"), Volume: 1000,
	}

	if err := h.Submit(core.Order{Symbol: "AAPL", Type: core.OrderMarket, Side: core.SideBuy, Quantity: dec("10")}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	fills := h.Process(day2)
	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	if !fills[0].FillPrice.Equal(dec("102")) {
		t.Fatalf("fill price = %v, want 102", fills[0].FillPrice)
	}
}

func TestStopSellGapThrough(t *testing.T) {
	// STOP SELL at 99, bar gaps open below the stop: fills at the open (95),
	// not at the stop price.
	h := New(zeroFrictionConfig())
	stop := dec("99")
	day3 := core.Bar{
		Open: dec("95"), High: dec("96"), Low: dec("94"), Close: dec("95"), Volume: 1000,
	}
	if err := h.Submit(core.Order{Type: core.OrderStop, Side: core.SideSell, Quantity: dec("10"), Price: &stop}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	fills := h.Process(day3)
	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	if !fills[0].FillPrice.Equal(dec("95")) {
		t.Fatalf("fill price = %v, want 95 (gap-through)", fills[0].FillPrice)
	}
}

func TestStopBuyGapThrough(t *testing.T) {
	h := New(zeroFrictionConfig())
	stop := dec("100")
	bar := core.Bar{Open: dec("105"), High: dec("106"), Low: dec("104"), Close: dec("105"), Volume: 1}
	h.Submit(core.Order{Type: core.OrderStop, Side: core.SideBuy, Quantity: dec("1"), Price: &stop})
	fills := h.Process(bar)
	if len(fills) != 1 || !fills[0].FillPrice.Equal(dec("105")) {
		t.Fatalf("expected gap fill at open 105, got %v", fills)
	}
}

func TestStopBuyTouchNoGap(t *testing.T) {
	h := New(zeroFrictionConfig())
	stop := dec("100")
	bar := core.Bar{Open: dec("98"), High: dec("101"), Low: dec("97"), Close: dec("99"), Volume: 1}
	h.Submit(core.Order{Type: core.OrderStop, Side: core.SideBuy, Quantity: dec("1"), Price: &stop})
	fills := h.Process(bar)
	if len(fills) != 1 || !fills[0].FillPrice.Equal(dec("100")) {
		t.Fatalf("expected stop fill at 100, got %v", fills)
	}
}

func TestLimitBuyFillsAtLimit(t *testing.T) {
	h := New(zeroFrictionConfig())
	limit := dec("50")
	bar := core.Bar{Open: dec("52"), High: dec("53"), Low: dec("49"), Close: dec("51"), Volume: 1}
	h.Submit(core.Order{Type: core.OrderLimit, Side: core.SideBuy, Quantity: dec("1"), Price: &limit})
	fills := h.Process(bar)
	if len(fills) != 1 || !fills[0].FillPrice.Equal(limit) {
		t.Fatalf("expected limit fill at 50, got %v", fills)
	}
}

func TestLimitOrderStaysPendingUntriggered(t *testing.T) {
	h := New(zeroFrictionConfig())
	limit := dec("40")
	bar := core.Bar{Open: dec("52"), High: dec("53"), Low: dec("49"), Close: dec("51"), Volume: 1}
	h.Submit(core.Order{Type: core.OrderLimit, Side: core.SideBuy, Quantity: dec("1"), Price: &limit})
	fills := h.Process(bar)
	if len(fills) != 0 {
		t.Fatalf("expected no fill, got %v", fills)
	}
	if h.Pending() != 1 {
		t.Fatalf("expected order to remain pending, got %d", h.Pending())
	}
}

func TestFrictionAppliedAdversely(t *testing.T) {
	cfg := Config{
		SlippagePct:        dec("0.01"),
		CommissionPerTrade: dec("1"),
		CommissionPerShare: dec("0.01"),
		SpreadPct:          dec("0.02"),
	}
	h := New(cfg)
	bar := core.Bar{Open: dec("100"), High: dec("101"), Low: dec("99"), Close: dec("100"), Volume: 1}

	h.Submit(core.Order{Type: core.OrderMarket, Side: core.SideBuy, Quantity: dec("10")})
	buyFill := h.Process(bar)[0]
	// slippage = 1, half-spread = 1 -> buy pays 102
	if !buyFill.FillPrice.Equal(dec("102")) {
		t.Fatalf("buy fill price = %v, want 102", buyFill.FillPrice)
	}
	if !buyFill.Commission.Equal(dec("1.1")) {
		t.Fatalf("commission = %v, want 1.1", buyFill.Commission)
	}

	h.Submit(core.Order{Type: core.OrderMarket, Side: core.SideSell, Quantity: dec("10")})
	sellFill := h.Process(bar)[0]
	if !sellFill.FillPrice.Equal(dec("98")) {
		t.Fatalf("sell fill price = %v, want 98", sellFill.FillPrice)
	}
}

func TestSubmitRejectsInvalidOrder(t *testing.T) {
	h := New(zeroFrictionConfig())
	err := h.Submit(core.Order{Type: core.OrderMarket, Quantity: dec("0")})
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
}
