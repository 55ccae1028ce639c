package engine

import (
	"sort"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

// StrategyAttribution is one strategy's slice of a shared PortfolioRouter
// run: its own fills (as attributed by position ownership), how many
// signals/orders/fills it produced, and its FIFO-paired net PnL.
type StrategyAttribution struct {
	Weight      decimal.Decimal
	FillLog     []core.Fill
	SignalCount int
	OrderCount  int
	FillCount   int
	NetPnL      decimal.Decimal
}

// MultiStrategyResult is PortfolioRouter's output: the shared portfolio's
// logs, plus a per-strategy attribution breakdown.
type MultiStrategyResult struct {
	EquityLog    []core.EquityLogEntry
	FillLog      []core.Fill
	EventLog     []any
	FinalEquity  decimal.Decimal
	TotalBars    int
	Attributions map[string]*StrategyAttribution
}

// PortfolioRouter runs several strategies against one shared symbol stream,
// one shared Portfolio, and one shared execution.Handler — unlike
// MultiAssetEngine, which gives every symbol its own book. Strategies
// compete for the same capital; PortfolioRouter tracks which strategy owns
// each open position so fills can be attributed back to whichever strategy
// opened it, and sizes new entries as a weight fraction of equity rather
// than consulting a RiskManager.
type PortfolioRouter struct {
	Source     BarSource
	Strategies map[string]core.Strategy
	Weights    map[string]decimal.Decimal
	Portfolio  *portfolio.Portfolio
	Execution  *execution.Handler

	positionOwner map[string]string
}

// NewPortfolioRouter builds a PortfolioRouter. Every key in strategies
// should have a matching entry in weights; a missing weight is treated as
// zero (the strategy still runs and its signals are still seen, but every
// LONG/SHORT entry order sizes to zero and is dropped; EXIT orders are not
// weight-sized).
func NewPortfolioRouter(source BarSource, strategies map[string]core.Strategy, weights map[string]decimal.Decimal, port *portfolio.Portfolio, exec *execution.Handler) *PortfolioRouter {
	return &PortfolioRouter{
		Source:        source,
		Strategies:    strategies,
		Weights:       weights,
		Portfolio:     port,
		Execution:     exec,
		positionOwner: make(map[string]string),
	}
}

// Run drives the shared bar stream to exhaustion. Per bar: (1) settle
// pending orders, attributing each resulting fill to whichever strategy
// currently owns that symbol's position, (2) check margin and
// force-liquidate, (3) poll every strategy in a fixed (sorted-name) order
// so the run is deterministic regardless of map iteration order, routing
// any LONG/SHORT signal's order through the shared execution handler and
// recording that strategy as the new owner of the symbol, (4) mark the
// shared portfolio to this bar's close.
func (r *PortfolioRouter) Run() MultiStrategyResult {
	attrs := make(map[string]*StrategyAttribution, len(r.Strategies))
	names := make([]string, 0, len(r.Strategies))
	for name := range r.Strategies {
		names = append(names, name)
		attrs[name] = &StrategyAttribution{Weight: r.Weights[name]}
	}
	sort.Strings(names)

	recorder := newEventRecorder()
	bars := 0
	for {
		bar, ok := r.Source.Next()
		if !ok {
			break
		}
		bars++

		for _, fill := range r.Execution.Process(bar) {
			_ = recorder.record(fill)
			r.Portfolio.ProcessFill(fill)
			if owner, ok := r.positionOwner[fill.Symbol]; ok {
				a := attrs[owner]
				a.FillLog = append(a.FillLog, fill)
				a.FillCount++
			}
		}

		prices := map[string]decimal.Decimal{bar.Symbol: bar.Close}
		for _, symbol := range r.Portfolio.CheckMargin(prices) {
			if fill, ok := r.Portfolio.ForceLiquidate(symbol, bar.Close, bar.Timestamp); ok {
				_ = recorder.record(fill)
			}
		}

		for _, name := range names {
			strat := r.Strategies[name]
			sig, ok := strat.CalculateSignals(bar)
			if !ok {
				continue
			}
			attrs[name].SignalCount++
			_ = recorder.record(sig)

			order, ok := TranslateWeighted(sig, bar, r.Portfolio, r.Weights[name])
			if !ok {
				continue
			}
			if err := r.Execution.Submit(order); err != nil {
				continue
			}
			_ = recorder.record(order)
			attrs[name].OrderCount++
			if sig.Variant == core.SignalLong || sig.Variant == core.SignalShort {
				r.positionOwner[bar.Symbol] = name
			}
		}

		r.Portfolio.UpdateEquity(bar)
		recorder.drain()
	}

	for _, name := range names {
		attrs[name].NetPnL = fifoNetPnL(attrs[name].FillLog)
	}

	return MultiStrategyResult{
		EquityLog:    r.Portfolio.EquityLog(),
		FillLog:      r.Portfolio.FillLog(),
		EventLog:     recorder.events(),
		FinalEquity:  r.Portfolio.LastEquity(),
		TotalBars:    bars,
		Attributions: attrs,
	}
}

// fifoNetPnL pairs each strategy's attributed fills opening-then-closing in
// arrival order and sums realized PnL net of commission, slippage, and
// spread cost on both legs. It tracks a single open fill at a time: a
// strategy that owns a symbol's position never has more than one open lot
// pending against it at once.
func fifoNetPnL(fills []core.Fill) decimal.Decimal {
	var open *core.Fill
	total := decimal.Zero

	for i := range fills {
		fill := fills[i]
		if open == nil {
			open = &fill
			continue
		}
		if open.Side == fill.Side {
			// Same side again before a close arrived — treat as a fresh open,
			// discarding the stale reference rather than mis-pairing it.
			open = &fill
			continue
		}

		var gross decimal.Decimal
		if open.Side == core.SideBuy {
			gross = fill.FillPrice.Sub(open.FillPrice).Mul(open.Quantity)
		} else {
			gross = open.FillPrice.Sub(fill.FillPrice).Mul(open.Quantity)
		}
		friction := open.TotalFriction().Add(fill.TotalFriction())
		total = total.Add(gross).Sub(friction)
		open = nil
	}

	return total
}
