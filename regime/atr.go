package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// simpleATR computes a plain true-range average over the trailing
// min(period, len(bars)-1) bars. Duplicated rather than imported from the
// strategy package, matching every other ATR consumer in this module.
func simpleATR(bars []core.Bar, period int) decimal.Decimal {
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
