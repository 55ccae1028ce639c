package risk

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// HeatConfig holds the tunables for the portfolio-heat gate.
type HeatConfig struct {
	MaxHeatPct    decimal.Decimal
	ATRMultiplier decimal.Decimal
}

// DefaultHeatConfig returns a 6% heat ceiling and a 2x ATR stop distance.
func DefaultHeatConfig() HeatConfig {
	return HeatConfig{
		MaxHeatPct:    decimal.NewFromFloat(0.06),
		ATRMultiplier: decimal.NewFromFloat(2.0),
	}
}

// fallbackRiskPct is the per-position risk estimate used when a strategy
// reports no ATR: 2% of the position's mark-to-market (or avg-entry,
// absent a fresher price) value.
var fallbackRiskPct = decimal.NewFromFloat(0.02)

// HeatMonitor tracks total open risk across every position as a fraction
// of equity, estimating each position's risk as quantity times ATR-scaled
// stop distance (or, absent an ATR, a flat 2% of its value).
type HeatMonitor struct {
	cfg HeatConfig
}

// NewHeatMonitor builds a HeatMonitor with cfg.
func NewHeatMonitor(cfg HeatConfig) *HeatMonitor {
	return &HeatMonitor{cfg: cfg}
}

// ComputeHeat returns current portfolio heat as a fraction of equity.
func (h *HeatMonitor) ComputeHeat(port core.Portfolio, strat core.Strategy, prices map[string]decimal.Decimal) decimal.Decimal {
	equity := port.Equity(prices)
	if equity.LessThanOrEqual(zero) {
		return zero
	}

	atr := strat.CurrentATR()
	var stopDistance decimal.Decimal
	if atr.GreaterThan(zero) {
		stopDistance = atr.Mul(h.cfg.ATRMultiplier)
	}

	totalRisk := zero
	for _, symbol := range port.OpenSymbols() {
		qty := port.PositionQuantity(symbol)
		if qty.LessThanOrEqual(zero) {
			continue
		}
		if stopDistance.GreaterThan(zero) {
			totalRisk = totalRisk.Add(qty.Mul(stopDistance))
			continue
		}
		if price, ok := prices[symbol]; ok {
			totalRisk = totalRisk.Add(qty.Mul(price).Mul(fallbackRiskPct))
		} else {
			totalRisk = totalRisk.Add(port.PositionNotional(symbol).Mul(fallbackRiskPct))
		}
	}

	return totalRisk.Div(equity)
}

// CanAddRisk reports whether adding newRisk (an absolute dollar amount)
// would keep total heat at or below MaxHeatPct.
func (h *HeatMonitor) CanAddRisk(port core.Portfolio, strat core.Strategy, prices map[string]decimal.Decimal, newRisk decimal.Decimal) bool {
	equity := port.Equity(prices)
	if equity.LessThanOrEqual(zero) {
		return false
	}
	current := h.ComputeHeat(port, strat, prices)
	additional := newRisk.Div(equity)
	return current.Add(additional).LessThanOrEqual(h.cfg.MaxHeatPct)
}
