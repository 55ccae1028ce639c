package analytics

import (
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// Excursion is the Maximum Adverse/Favorable Excursion for one round-trip
// trade. MAE/MFE are price deltas, always expressed as positive numbers
// (adverse or favorable respectively).
type Excursion struct {
	EntryTime time.Time
	ExitTime  time.Time
	PnL       decimal.Decimal
	MAE       decimal.Decimal
	MFE       decimal.Decimal
	Side      string
	IsWin     bool
}

// ComputeMAEMFE pairs fillLog into round-trip trades and, for each, scans
// equityLog entries falling within [entryTime, exitTime] for the traded
// symbol's mark price (falling back to total equity when no per-symbol
// price was recorded for that bar) to find the best and worst excursion.
func ComputeMAEMFE(equityLog []core.EquityLogEntry, fillLog []core.Fill) []Excursion {
	trades := pairFillsToTrades(fillLog)
	if len(trades) == 0 || len(equityLog) == 0 {
		return nil
	}

	var out []Excursion
	for _, t := range trades {
		entryPrice := t.entryFill.FillPrice
		isLong := t.entryFill.Side == core.SideBuy

		var prices []decimal.Decimal
		for _, e := range equityLog {
			if e.Timestamp.Before(t.entryTime) || e.Timestamp.After(t.exitTime) {
				continue
			}
			price := e.Equity
			if p, ok := e.Prices[t.entryFill.Symbol]; ok {
				price = p
			}
			prices = append(prices, price)
		}
		if len(prices) == 0 {
			continue
		}

		minPrice, maxPrice := prices[0], prices[0]
		for _, p := range prices[1:] {
			if p.LessThan(minPrice) {
				minPrice = p
			}
			if p.GreaterThan(maxPrice) {
				maxPrice = p
			}
		}

		var mae, mfe decimal.Decimal
		side := "SHORT"
		if isLong {
			side = "LONG"
			mae = entryPrice.Sub(minPrice)
			mfe = maxPrice.Sub(entryPrice)
		} else {
			mae = maxPrice.Sub(entryPrice)
			mfe = entryPrice.Sub(minPrice)
		}

		out = append(out, Excursion{
			EntryTime: t.entryTime,
			ExitTime:  t.exitTime,
			PnL:       t.pnl,
			MAE:       mae,
			MFE:       mfe,
			Side:      side,
			IsWin:     t.pnl.GreaterThan(decimal.Zero),
		})
	}

	return out
}
