package metrics

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

type roundTrip struct {
	pnl       decimal.Decimal
	entryTime int64 // unix seconds
	exitTime  int64
}

type tradeStats struct {
	winRate        decimal.Decimal
	profitFactor   decimal.Decimal
	expectancy     decimal.Decimal
	tradeCount     int
	avgHoldingTime int
	avgRR          decimal.Decimal
}

// computeTradeStats pairs fillLog into FIFO round-trip trades per symbol
// and derives win rate, profit factor, expectancy, and average
// risk-reward. Pairing friction is commission only — slippage and spread
// are execution-quality costs already baked into FillPrice, not deducted
// again here.
func computeTradeStats(fillLog []core.Fill) tradeStats {
	if len(fillLog) == 0 {
		return tradeStats{}
	}

	var trades []roundTrip
	openFills := make(map[string][]core.Fill)

	for _, fill := range fillLog {
		existing := openFills[fill.Symbol]

		if len(existing) > 0 && existing[0].Side != fill.Side {
			open := existing[0]
			openFills[fill.Symbol] = existing[1:]

			qty := decimal.Min(fill.Quantity, open.Quantity)
			var pnl decimal.Decimal
			if open.Side == core.SideBuy {
				pnl = fill.FillPrice.Sub(open.FillPrice).Mul(qty)
			} else {
				pnl = open.FillPrice.Sub(fill.FillPrice).Mul(qty)
			}
			pnl = pnl.Sub(fill.Commission).Sub(open.Commission)

			trades = append(trades, roundTrip{
				pnl:       pnl,
				entryTime: open.Timestamp.Unix(),
				exitTime:  fill.Timestamp.Unix(),
			})
		} else {
			openFills[fill.Symbol] = append(existing, fill)
		}
	}

	if len(trades) == 0 {
		return tradeStats{}
	}

	var wins, losses []roundTrip
	for _, t := range trades {
		if t.pnl.GreaterThan(decimal.Zero) {
			wins = append(wins, t)
		} else {
			losses = append(losses, t)
		}
	}

	totalWins := sumPnL(wins)
	totalLosses := sumPnL(losses).Abs()

	tradeCount := len(trades)
	winRate := decimal.NewFromInt(int64(len(wins))).Div(decimal.NewFromInt(int64(tradeCount))).Mul(hundred)

	profitFactor := decimal.Zero
	if totalLosses.GreaterThan(decimal.Zero) {
		profitFactor = totalWins.Div(totalLosses)
	}

	expectancy := sumPnL(trades).Div(decimal.NewFromInt(int64(tradeCount)))

	totalHoldHours := 0.0
	for _, t := range trades {
		hours := float64(t.exitTime-t.entryTime) / 3600.0
		if hours < 1 {
			hours = 1
		}
		totalHoldHours += hours
	}
	avgHolding := 0
	if tradeCount > 0 {
		avgHolding = int(totalHoldHours / float64(tradeCount))
	}

	avgWin := decimal.Zero
	if len(wins) > 0 {
		avgWin = totalWins.Div(decimal.NewFromInt(int64(len(wins))))
	}
	avgLoss := decimal.NewFromInt(1)
	if len(losses) > 0 {
		avgLoss = totalLosses.Div(decimal.NewFromInt(int64(len(losses))))
	}
	avgRR := decimal.Zero
	if avgLoss.GreaterThan(decimal.Zero) {
		avgRR = avgWin.Div(avgLoss)
	}

	return tradeStats{
		winRate:        winRate,
		profitFactor:   profitFactor,
		expectancy:     expectancy,
		tradeCount:     tradeCount,
		avgHoldingTime: avgHolding,
		avgRR:          avgRR,
	}
}

func sumPnL(trades []roundTrip) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range trades {
		sum = sum.Add(t.pnl)
	}
	return sum
}
