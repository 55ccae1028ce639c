// Package risk sizes and gates trades: a Kelly-adjusted fixed-fractional
// pipeline, a portfolio-heat cap, a drawdown scaler, and the RiskManager
// that orchestrates all three behind the core.RiskManager interface.
package risk

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// KellyConfig holds the tunables for adaptive position sizing.
type KellyConfig struct {
	Lookback    int
	Fraction    decimal.Decimal
	MinTrades   int
	MaxKellyPct decimal.Decimal
}

// DefaultKellyConfig returns a 40-trade rolling
// window, Half-Kelly, a 20-trade warmup, capped at 5% of equity.
func DefaultKellyConfig() KellyConfig {
	return KellyConfig{
		Lookback:    40,
		Fraction:    decimal.NewFromFloat(0.5),
		MinTrades:   20,
		MaxKellyPct: decimal.NewFromFloat(0.05),
	}
}

// Kelly tracks rolling win-rate and win/loss ratio from a fill log and
// converts them into an adjusted Kelly fraction. Update must be called with
// the latest fill log before Fraction is read; it is stateless between
// calls by design, so callers never need to reset it between runs — a
// fresh Kelly is as safe to reuse across many calls to Update as a new one.
type Kelly struct {
	cfg          KellyConfig
	winRate      decimal.Decimal
	winLossRatio decimal.Decimal
	tradeCount   int
}

// NewKelly builds a Kelly sizer with cfg.
func NewKelly(cfg KellyConfig) *Kelly {
	return &Kelly{cfg: cfg}
}

// Update recomputes win-rate and win/loss ratio from the most recent
// cfg.Lookback round-trip trades extracted from fillLog.
func (k *Kelly) Update(fillLog []core.Fill) {
	pnls := extractRoundTripPnLs(fillLog)
	if len(pnls) == 0 {
		k.tradeCount = 0
		return
	}

	recent := pnls
	if len(recent) > k.cfg.Lookback {
		recent = recent[len(recent)-k.cfg.Lookback:]
	}
	k.tradeCount = len(recent)

	var wins, losses []decimal.Decimal
	for _, pnl := range recent {
		if pnl.GreaterThan(zero) {
			wins = append(wins, pnl)
		} else {
			losses = append(losses, pnl)
		}
	}

	total := decimal.NewFromInt(int64(len(recent)))
	k.winRate = decimal.NewFromInt(int64(len(wins))).Div(total)

	avgWin := zero
	if len(wins) > 0 {
		avgWin = sumDecimal(wins).Div(decimal.NewFromInt(int64(len(wins))))
	}
	avgLoss := one
	if len(losses) > 0 {
		avgLoss = sumDecimal(losses).Div(decimal.NewFromInt(int64(len(losses)))).Abs()
	}

	if avgLoss.GreaterThan(zero) {
		k.winLossRatio = avgWin.Div(avgLoss)
	} else {
		k.winLossRatio = zero
	}
}

// Fraction returns the adjusted Kelly fraction, and false when there have
// not yet been cfg.MinTrades round-trips to estimate from.
func (k *Kelly) Fraction() (decimal.Decimal, bool) {
	if k.tradeCount < k.cfg.MinTrades {
		return zero, false
	}
	if k.winLossRatio.IsZero() {
		return zero, true
	}

	kelly := k.winRate.Sub(one.Sub(k.winRate).Div(k.winLossRatio))
	adjusted := kelly.Mul(k.cfg.Fraction)

	if adjusted.LessThan(zero) {
		return zero, true
	}
	if adjusted.GreaterThan(k.cfg.MaxKellyPct) {
		return k.cfg.MaxKellyPct, true
	}
	return adjusted, true
}

// extractRoundTripPnLs pairs each symbol's fills FIFO (same-side fills
// accumulate onto an open stack; an opposite-side fill closes the oldest
// entry) and returns one PnL per closed round-trip, net of both legs'
// commission only — slippage and spread are already priced into FillPrice.
// Kelly only needs a directionally-accurate win/loss signal, not an exact
// accounting figure.
func extractRoundTripPnLs(fillLog []core.Fill) []decimal.Decimal {
	var pnls []decimal.Decimal
	open := make(map[string][]core.Fill)

	for _, fill := range fillLog {
		stack := open[fill.Symbol]
		if len(stack) == 0 {
			open[fill.Symbol] = append(stack, fill)
			continue
		}
		if stack[0].Side == fill.Side {
			open[fill.Symbol] = append(stack, fill)
			continue
		}

		head := stack[0]
		open[fill.Symbol] = stack[1:]

		qty := decimal.Min(head.Quantity, fill.Quantity)
		var pnl decimal.Decimal
		if head.Side == core.SideBuy {
			pnl = fill.FillPrice.Sub(head.FillPrice).Mul(qty)
		} else {
			pnl = head.FillPrice.Sub(fill.FillPrice).Mul(qty)
		}
		pnl = pnl.Sub(fill.Commission).Sub(head.Commission)
		pnls = append(pnls, pnl)
	}

	return pnls
}

func sumDecimal(vs []decimal.Decimal) decimal.Decimal {
	total := zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}
