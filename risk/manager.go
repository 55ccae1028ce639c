package risk

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// Config holds the tunables for Manager's sizing and gating pipeline. The
// three optional sub-modules (Kelly, Heat, Drawdown) are left nil unless
// the caller opts in.
type Config struct {
	RiskPerTrade           decimal.Decimal
	ATRMultiplier          decimal.Decimal
	FallbackRiskPct        decimal.Decimal
	MaxPositionPct         decimal.Decimal
	MaxConcurrentPositions int
	PerAssetMaxPositions   map[string]int
	PerAssetMaxPct         map[string]decimal.Decimal
}

// DefaultConfig returns 1% risk per trade, 2x ATR
// stop distance, 2% fallback stop, 20% max single-position size, 5
// concurrent positions.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:           decimal.NewFromFloat(0.01),
		ATRMultiplier:          decimal.NewFromFloat(2.0),
		FallbackRiskPct:        decimal.NewFromFloat(0.02),
		MaxPositionPct:         decimal.NewFromFloat(0.20),
		MaxConcurrentPositions: 5,
	}
}

// Manager orchestrates trade gating and position sizing behind the
// core.RiskManager interface. Kelly, Heat, and DD are optional — a nil
// field disables that stage of the pipeline rather than panicking.
type Manager struct {
	cfg   Config
	Kelly *Kelly
	Heat  *HeatMonitor
	DD    *DrawdownScaler
}

// NewManager builds a Manager with cfg. Attach Kelly, Heat, or DD on the
// returned value to opt into those pipeline stages.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// CanTrade reports whether a new LONG/SHORT trade is allowed: the
// concurrent-position cap first, then any per-asset cap for bar.Symbol.
func (m *Manager) CanTrade(port core.Portfolio, bar core.Bar) bool {
	if port.OpenPositionCount() >= m.cfg.MaxConcurrentPositions {
		return false
	}

	if m.cfg.PerAssetMaxPositions != nil {
		if limit, ok := m.cfg.PerAssetMaxPositions[bar.Symbol]; ok {
			count := 0
			if port.HasPosition(bar.Symbol) {
				count = 1
			}
			if count >= limit {
				return false
			}
		}
	}

	return true
}

// ComputeQuantity runs the full sizing pipeline: equity -> ATR stop
// distance (or fallback) -> optional Kelly override of risk-per-trade ->
// risk_amount -> raw quantity -> max-position-pct cap (and optional
// per-asset cap) -> optional drawdown scaling -> floor to a whole share ->
// optional heat check (zero when the new position's risk would push
// portfolio heat above the HeatMonitor's ceiling).
func (m *Manager) ComputeQuantity(port core.Portfolio, strat core.Strategy, bar core.Bar) decimal.Decimal {
	equity := port.LastEquity()
	if equity.LessThanOrEqual(zero) {
		return zero
	}

	atr := strat.CurrentATR()
	var stopDistance decimal.Decimal
	if atr.GreaterThan(zero) {
		stopDistance = atr.Mul(m.cfg.ATRMultiplier)
	} else {
		stopDistance = bar.Close.Mul(m.cfg.FallbackRiskPct)
	}
	if stopDistance.LessThanOrEqual(zero) || bar.Close.LessThanOrEqual(zero) {
		return zero
	}

	riskPerTrade := m.cfg.RiskPerTrade
	if m.Kelly != nil {
		m.Kelly.Update(port.FillLog())
		if frac, ok := m.Kelly.Fraction(); ok {
			riskPerTrade = frac
		}
	}

	riskAmount := equity.Mul(riskPerTrade)
	quantity := riskAmount.Div(stopDistance)

	maxQuantity := equity.Mul(m.cfg.MaxPositionPct).Div(bar.Close)
	quantity = decimal.Min(quantity, maxQuantity)

	if m.cfg.PerAssetMaxPct != nil {
		if limit, ok := m.cfg.PerAssetMaxPct[bar.Symbol]; ok {
			assetMaxQty := equity.Mul(limit).Div(bar.Close)
			quantity = decimal.Min(quantity, assetMaxQty)
		}
	}

	if m.DD != nil {
		quantity = quantity.Mul(m.DD.ComputeScale(port.EquityLog()))
	}

	quantity = quantity.Floor()
	if quantity.LessThan(zero) {
		return zero
	}

	if m.Heat != nil && quantity.GreaterThan(zero) {
		prices := map[string]decimal.Decimal{bar.Symbol: bar.Close}
		if !m.Heat.CanAddRisk(port, strat, prices, quantity.Mul(stopDistance)) {
			return zero
		}
	}
	return quantity
}
