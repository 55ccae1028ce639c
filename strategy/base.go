// Package strategy provides the rolling-buffer base every concrete
// strategy embeds, a name -> factory registry, and three concrete
// strategies (Donchian breakout, RSI mean-reversion, and a standalone
// fair-value-gap strategy distinct from the full SMC/ICT state machines in
// the sibling smc package).
package strategy

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// Base holds the rolling bar buffer and the simple-ATR estimate every
// concrete strategy needs to satisfy core.Strategy. Structurally, a
// strategy can only ever see Base.Bars() — there is no way to reach a bar
// that has not yet been appended, which is what keeps every strategy free
// of look-ahead by construction.
type Base struct {
	symbol        string
	timeframe     string
	maxBufferSize int
	atrPeriod     int
	bars          []core.Bar
	currentATR    decimal.Decimal
}

// NewBase builds a Base for symbol/timeframe. maxBufferSize bounds the
// rolling window (the DefaultXConfig constructors set 500; NewBase applies
// no default of its own); atrPeriod feeds the simple true-range ATR
// recomputed on every bar.
func NewBase(symbol, timeframe string, maxBufferSize, atrPeriod int) Base {
	return Base{
		symbol:        symbol,
		timeframe:     timeframe,
		maxBufferSize: maxBufferSize,
		atrPeriod:     atrPeriod,
	}
}

// Symbol returns the strategy's symbol.
func (b *Base) Symbol() string { return b.symbol }

// Timeframe returns the strategy's configured timeframe.
func (b *Base) Timeframe() string { return b.timeframe }

// Bars returns a read-only copy of the rolling buffer.
func (b *Base) Bars() []core.Bar {
	out := make([]core.Bar, len(b.bars))
	copy(out, b.bars)
	return out
}

// CurrentATR returns the most recently computed simple ATR.
func (b *Base) CurrentATR() decimal.Decimal { return b.currentATR }

// update appends bar to the buffer, trims to maxBufferSize, and refreshes
// CurrentATR. Every concrete strategy's CalculateSignals calls this first,
// before looking at the buffer for anything else.
func (b *Base) update(bar core.Bar) {
	b.bars = append(b.bars, bar)
	if len(b.bars) > b.maxBufferSize {
		b.bars = b.bars[len(b.bars)-b.maxBufferSize:]
	}
	b.currentATR = SimpleATR(b.bars, b.atrPeriod)
}

// SimpleATR computes a plain (non-Wilder-smoothed) average true range over
// the trailing min(period, len(bars)-1) bars. One shared helper rather
// than a per-strategy copy, since nothing about the computation is
// strategy-specific.
func SimpleATR(bars []core.Bar, period int) decimal.Decimal {
	if len(bars) < 2 {
		return decimal.Zero
	}
	p := period
	if len(bars)-1 < p {
		p = len(bars) - 1
	}
	if p < 1 {
		return decimal.Zero
	}

	trSum := decimal.Zero
	for i := len(bars) - p; i < len(bars); i++ {
		bar := bars[i]
		prevClose := bars[i-1].Close
		tr := decimal.Max(
			bar.High.Sub(bar.Low),
			bar.High.Sub(prevClose).Abs(),
			bar.Low.Sub(prevClose).Abs(),
		)
		trSum = trSum.Add(tr)
	}
	return trSum.Div(decimal.NewFromInt(int64(p)))
}
