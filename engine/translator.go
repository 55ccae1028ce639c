package engine

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// fixedFractionalPct is the quantity fallback used whenever no RiskManager
// is wired in: 10% of current equity, floored to whole shares.
var fixedFractionalPct = decimal.NewFromFloat(0.10)

// Translate turns a strategy's Signal into an Order, or reports false when
// the signal produces no order at all (an EXIT with nothing open, or a
// LONG/SHORT the risk manager vetoes). It never submits the order itself —
// callers hand the result to an execution.Handler.
//
// EXIT closes the full open position on the opposite side. LONG/SHORT are
// gated through risk.CanTrade when a RiskManager is present; quantity comes
// from risk.ComputeQuantity when present, the fixed-fractional fallback
// otherwise. Only BUY orders are run through Portfolio.ValidateOrder —
// opening a short never draws down cash the way a long's gross cost does,
// so SELL orders skip validation.
func Translate(sig core.Signal, bar core.Bar, port core.Portfolio, strat core.Strategy, risk core.RiskManager) (core.Order, bool) {
	switch sig.Variant {
	case core.SignalExit:
		return translateExit(sig, bar, port)
	case core.SignalLong:
		return translateEntry(sig, bar, port, strat, risk, core.SideBuy)
	case core.SignalShort:
		return translateEntry(sig, bar, port, strat, risk, core.SideSell)
	default:
		return core.Order{}, false
	}
}

func translateExit(sig core.Signal, bar core.Bar, port core.Portfolio) (core.Order, bool) {
	qty := port.PositionQuantity(sig.Symbol)
	if qty.LessThanOrEqual(decimal.Zero) {
		return core.Order{}, false
	}
	side, ok := port.PositionSide(sig.Symbol)
	if !ok {
		return core.Order{}, false
	}
	closeSide := core.SideSell
	if side == core.SideSell {
		closeSide = core.SideBuy
	}
	return core.Order{
		Symbol:    sig.Symbol,
		Timestamp: sig.Timestamp,
		Type:      core.OrderMarket,
		Side:      closeSide,
		Quantity:  qty,
	}, true
}

func translateEntry(sig core.Signal, bar core.Bar, port core.Portfolio, strat core.Strategy, risk core.RiskManager, side core.OrderSide) (core.Order, bool) {
	if risk != nil && !risk.CanTrade(port, bar) {
		return core.Order{}, false
	}

	qty := ComputeQuantity(port, strat, bar, risk)
	if qty.LessThanOrEqual(decimal.Zero) {
		return core.Order{}, false
	}

	if side == core.SideBuy {
		ok, _ := port.ValidateOrder(sig.Symbol, side, qty, bar.Close, bar.Volume)
		if !ok {
			return core.Order{}, false
		}
	}

	return core.Order{
		Symbol:    sig.Symbol,
		Timestamp: sig.Timestamp,
		Type:      core.OrderMarket,
		Side:      side,
		Quantity:  qty,
	}, true
}

// ComputeQuantity delegates to the RiskManager when one is wired in, and
// otherwise falls back to the legacy fixed-fractional sizing: 10% of
// current equity divided by the current close, floored to a whole share.
func ComputeQuantity(port core.Portfolio, strat core.Strategy, bar core.Bar, risk core.RiskManager) decimal.Decimal {
	if risk != nil {
		return risk.ComputeQuantity(port, strat, bar)
	}
	return fixedFractionalQuantity(port, bar, fixedFractionalPct)
}

func fixedFractionalQuantity(port core.Portfolio, bar core.Bar, pct decimal.Decimal) decimal.Decimal {
	if bar.Close.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	equity := port.LastEquity()
	raw := equity.Mul(pct).Div(bar.Close)
	return raw.Floor()
}

// TranslateWeighted is PortfolioRouter's entry path: it sizes LONG/SHORT
// orders as a per-strategy weight times the same fixed-fractional formula,
// with no RiskManager consulted — weight allocation alone keeps strategies
// from overlapping risk.
func TranslateWeighted(sig core.Signal, bar core.Bar, port core.Portfolio, weight decimal.Decimal) (core.Order, bool) {
	switch sig.Variant {
	case core.SignalExit:
		return translateExit(sig, bar, port)
	case core.SignalLong:
		return translateWeightedEntry(sig, bar, port, weight, core.SideBuy)
	case core.SignalShort:
		return translateWeightedEntry(sig, bar, port, weight, core.SideSell)
	default:
		return core.Order{}, false
	}
}

func translateWeightedEntry(sig core.Signal, bar core.Bar, port core.Portfolio, weight decimal.Decimal, side core.OrderSide) (core.Order, bool) {
	qty := fixedFractionalQuantity(port, bar, fixedFractionalPct.Mul(weight))
	if qty.LessThanOrEqual(decimal.Zero) {
		return core.Order{}, false
	}
	if side == core.SideBuy {
		ok, _ := port.ValidateOrder(sig.Symbol, side, qty, bar.Close, bar.Volume)
		if !ok {
			return core.Order{}, false
		}
	}
	return core.Order{
		Symbol:    sig.Symbol,
		Timestamp: sig.Timestamp,
		Type:      core.OrderMarket,
		Side:      side,
		Quantity:  qty,
	}, true
}
