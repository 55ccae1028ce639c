package engine

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

// Result carries everything a caller needs out of a single-asset run: the
// portfolio's append-only logs, the audit trail of every Signal, Order,
// and Fill in generation order, the final equity, and the bar count driven
// through the loop.
type Result struct {
	EquityLog   []core.EquityLogEntry
	FillLog     []core.Fill
	EventLog    []any
	FinalEquity decimal.Decimal
	TotalBars   int
}

// Engine drives one symbol's Bar -> Signal -> Order -> Fill loop to
// completion. It carries no trading logic of its own: every decision comes
// from Strategy, every fill from Execution, every accounting entry from
// Portfolio. Risk is optional — a nil RiskManager falls back to
// fixed-fractional sizing (see Translate).
type Engine struct {
	Source    BarSource
	Strategy  core.Strategy
	Portfolio *portfolio.Portfolio
	Execution *execution.Handler
	Risk      core.RiskManager
}

// New builds an Engine. risk may be nil.
func New(source BarSource, strategy core.Strategy, port *portfolio.Portfolio, exec *execution.Handler, risk core.RiskManager) *Engine {
	return &Engine{
		Source:    source,
		Strategy:  strategy,
		Portfolio: port,
		Execution: exec,
		Risk:      risk,
	}
}

// Run drives the loop to exhaustion of Source and returns the resulting
// logs. Each bar is processed in four steps, in this fixed order: (1)
// settle pending orders against this bar and
// apply fills, (2) check margin and force-liquidate anything under water,
// (3) ask the strategy for a signal and translate it into a new order for
// the *next* bar, (4) mark the portfolio to this bar's close. The order
// never changes: a signal generated on bar t can only fill on bar t+1,
// which is what keeps the loop free of look-ahead bias.
func (e *Engine) Run() Result {
	recorder := newEventRecorder()
	bars := 0
	for {
		bar, ok := e.Source.Next()
		if !ok {
			break
		}
		bars++

		for _, fill := range e.Execution.Process(bar) {
			_ = recorder.record(fill)
			e.Portfolio.ProcessFill(fill)
		}

		prices := map[string]decimal.Decimal{bar.Symbol: bar.Close}
		for _, symbol := range e.Portfolio.CheckMargin(prices) {
			if fill, ok := e.Portfolio.ForceLiquidate(symbol, bar.Close, bar.Timestamp); ok {
				_ = recorder.record(fill)
			}
		}

		if sig, ok := e.Strategy.CalculateSignals(bar); ok {
			_ = recorder.record(sig)
			if order, ok := Translate(sig, bar, e.Portfolio, e.Strategy, e.Risk); ok {
				_ = recorder.record(order)
				_ = e.Execution.Submit(order)
			}
		}

		e.Portfolio.UpdateEquity(bar)
		recorder.drain()
	}

	return Result{
		EquityLog:   e.Portfolio.EquityLog(),
		FillLog:     e.Portfolio.FillLog(),
		EventLog:    recorder.events(),
		FinalEquity: e.Portfolio.LastEquity(),
		TotalBars:   bars,
	}
}
