package strategy

import "github.com/shopspring/decimal"

// WilderRSI computes the Wilder-smoothed relative strength index over
// closes, seeding the average gain/loss from the first period changes (a
// plain average) and Wilder-smoothing every change after that — the same
// two-phase seed-then-smooth shape the regime package's ADX classifier
// uses, and the algorithm pandas_ta.rsi applies by default. Returns false
// when closes doesn't carry at least period+1 observations.
func WilderRSI(closes []decimal.Decimal, period int) (decimal.Decimal, bool) {
	if len(closes) < period+1 {
		return decimal.Zero, false
	}

	gains := make([]decimal.Decimal, 0, len(closes)-1)
	losses := make([]decimal.Decimal, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i].Sub(closes[i-1])
		if delta.GreaterThan(decimal.Zero) {
			gains = append(gains, delta)
			losses = append(losses, decimal.Zero)
		} else {
			gains = append(gains, decimal.Zero)
			losses = append(losses, delta.Abs())
		}
	}

	periodD := decimal.NewFromInt(int64(period))
	avgGain := sumD(gains[:period]).Div(periodD)
	avgLoss := sumD(losses[:period]).Div(periodD)

	for i := period; i < len(gains); i++ {
		avgGain = avgGain.Mul(periodD.Sub(oneD)).Add(gains[i]).Div(periodD)
		avgLoss = avgLoss.Mul(periodD.Sub(oneD)).Add(losses[i]).Div(periodD)
	}

	if avgLoss.IsZero() {
		return hundred, true
	}
	rs := avgGain.Div(avgLoss)
	rsi := hundred.Sub(hundred.Div(oneD.Add(rs)))
	return rsi, true
}

func sumD(vs []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}
