package engine

import (
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func bar(symbol string, ts time.Time, o, h, l, c float64) core.Bar {
	return core.Bar{Symbol: symbol, Timestamp: ts, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: 1000}
}

// alwaysLongStrategy emits a LONG signal on the first bar it ever sees and
// an EXIT on the next, forever alternating, to exercise the full
// order-next-bar fill cycle without depending on any concrete strategy
// package.
type alwaysLongStrategy struct {
	symbol   string
	wantLong bool
}

func (s *alwaysLongStrategy) Symbol() string              { return s.symbol }
func (s *alwaysLongStrategy) CurrentATR() decimal.Decimal { return decimal.Zero }
func (s *alwaysLongStrategy) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	variant := core.SignalExit
	if s.wantLong {
		variant = core.SignalLong
	}
	s.wantLong = !s.wantLong
	return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: variant, Strength: decimal.NewFromInt(1)}, true
}

func TestEngineRunFillsOnNextBar(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		bar("AAPL", base, 100, 101, 99, 100),
		bar("AAPL", base.Add(24*time.Hour), 100, 102, 99, 101),
		bar("AAPL", base.Add(48*time.Hour), 101, 103, 100, 102),
	}

	strat := &alwaysLongStrategy{symbol: "AAPL", wantLong: true}
	port := portfolio.New(d(10000), d(0.25))
	exec := execution.New(execution.DefaultConfig())
	eng := New(NewSliceSource(bars), strat, port, exec, nil)

	result := eng.Run()

	if result.TotalBars != 3 {
		t.Fatalf("TotalBars = %d, want 3", result.TotalBars)
	}
	if len(result.FillLog) == 0 {
		t.Fatalf("expected at least one fill from the LONG signal on bar 1")
	}
	if result.FillLog[0].Timestamp.Equal(bars[0].Timestamp) {
		t.Fatalf("signal submitted on bar 0 must not fill on bar 0 (look-ahead)")
	}
}

func TestEngineEventLogPreservesGenerationOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		bar("AAPL", base, 100, 101, 99, 100),
		bar("AAPL", base.Add(24*time.Hour), 100, 102, 99, 101),
	}

	strat := &alwaysLongStrategy{symbol: "AAPL", wantLong: true}
	port := portfolio.New(d(10000), d(0.25))
	exec := execution.New(execution.DefaultConfig())
	eng := New(NewSliceSource(bars), strat, port, exec, nil)

	result := eng.Run()

	// Bar 0: LONG signal + order. Bar 1: the order's fill, then the EXIT
	// signal and its closing order.
	if len(result.EventLog) < 3 {
		t.Fatalf("len(EventLog) = %d, want at least signal+order+fill", len(result.EventLog))
	}
	if _, ok := result.EventLog[0].(core.Signal); !ok {
		t.Fatalf("EventLog[0] = %T, want the bar-0 Signal first", result.EventLog[0])
	}
	if _, ok := result.EventLog[1].(core.Order); !ok {
		t.Fatalf("EventLog[1] = %T, want the bar-0 Order second", result.EventLog[1])
	}
	if _, ok := result.EventLog[2].(core.Fill); !ok {
		t.Fatalf("EventLog[2] = %T, want the bar-1 Fill third", result.EventLog[2])
	}
}

func TestEngineNoSignalProducesNoFills(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{bar("AAPL", base, 100, 101, 99, 100)}

	port := portfolio.New(d(10000), d(0.25))
	exec := execution.New(execution.DefaultConfig())
	eng := New(NewSliceSource(bars), noopStrategy{"AAPL"}, port, exec, nil)

	result := eng.Run()
	if len(result.FillLog) != 0 {
		t.Fatalf("expected no fills, got %d", len(result.FillLog))
	}
}

type noopStrategy struct{ symbol string }

func (s noopStrategy) Symbol() string                                { return s.symbol }
func (s noopStrategy) CurrentATR() decimal.Decimal                   { return decimal.Zero }
func (s noopStrategy) CalculateSignals(core.Bar) (core.Signal, bool) { return core.Signal{}, false }

func TestMergeBarsInterleavesChronologically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	aapl := []core.Bar{
		bar("AAPL", base, 100, 101, 99, 100),
		bar("AAPL", base.Add(2*time.Hour), 101, 102, 100, 101),
	}
	msft := []core.Bar{
		bar("MSFT", base.Add(1*time.Hour), 200, 201, 199, 200),
	}

	merged := MergeBars(map[string]BarSource{
		"AAPL": NewSliceSource(aapl),
		"MSFT": NewSliceSource(msft),
	})

	if len(merged) != 3 {
		t.Fatalf("len(merged) = %d, want 3", len(merged))
	}
	wantOrder := []string{"AAPL", "MSFT", "AAPL"}
	for i, want := range wantOrder {
		if merged[i].Symbol != want {
			t.Fatalf("merged[%d].Symbol = %s, want %s", i, merged[i].Symbol, want)
		}
	}
}

func TestMultiAssetEngineSnapshotsOncePerTimestamp(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	aapl := []core.Bar{bar("AAPL", base, 100, 101, 99, 100)}
	msft := []core.Bar{bar("MSFT", base, 200, 201, 199, 200)}

	port := portfolio.New(d(10000), d(0.25))
	eng := NewMultiAsset(
		map[string]BarSource{"AAPL": NewSliceSource(aapl), "MSFT": NewSliceSource(msft)},
		map[string]core.Strategy{"AAPL": noopStrategy{"AAPL"}, "MSFT": noopStrategy{"MSFT"}},
		port,
		map[string]*execution.Handler{"AAPL": execution.New(execution.DefaultConfig()), "MSFT": execution.New(execution.DefaultConfig())},
		nil,
	)

	result := eng.Run()
	if len(result.EquityLog) != 1 {
		t.Fatalf("len(EquityLog) = %d, want 1 snapshot for two same-timestamp bars", len(result.EquityLog))
	}
}

func TestPortfolioRouterAttributesFillsByOwner(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.Bar{
		bar("AAPL", base, 100, 101, 99, 100),
		bar("AAPL", base.Add(24*time.Hour), 100, 102, 99, 101),
		bar("AAPL", base.Add(48*time.Hour), 101, 103, 100, 102),
	}

	port := portfolio.New(d(10000), d(0.25))
	exec := execution.New(execution.DefaultConfig())
	router := NewPortfolioRouter(
		NewSliceSource(bars),
		map[string]core.Strategy{"trend": &alwaysLongStrategy{symbol: "AAPL", wantLong: true}},
		map[string]decimal.Decimal{"trend": decimal.NewFromInt(1)},
		port,
		exec,
	)

	result := router.Run()
	attr, ok := result.Attributions["trend"]
	if !ok {
		t.Fatalf("missing attribution for strategy %q", "trend")
	}
	if attr.SignalCount == 0 {
		t.Fatalf("expected at least one signal recorded")
	}
}
