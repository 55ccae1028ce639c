package risk

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// DrawdownConfig holds the tunables for the drawdown scaler.
type DrawdownConfig struct {
	MaxDrawdownPct decimal.Decimal
	FullStopPct    decimal.Decimal
	MinScale       decimal.Decimal
}

// DefaultDrawdownConfig returns scaling that begins at 5% drawdown,
// bottoms out at 20% drawdown, with a floor of 25% normal size.
func DefaultDrawdownConfig() DrawdownConfig {
	return DrawdownConfig{
		MaxDrawdownPct: decimal.NewFromFloat(0.05),
		FullStopPct:    decimal.NewFromFloat(0.20),
		MinScale:       decimal.NewFromFloat(0.25),
	}
}

// DrawdownScaler reduces position size linearly as the equity curve draws
// down from its running peak, between MaxDrawdownPct (scale 1) and
// FullStopPct (scale MinScale).
type DrawdownScaler struct {
	cfg DrawdownConfig
}

// NewDrawdownScaler builds a DrawdownScaler with cfg.
func NewDrawdownScaler(cfg DrawdownConfig) *DrawdownScaler {
	return &DrawdownScaler{cfg: cfg}
}

// ComputeScale returns the position-size scale factor implied by the
// current drawdown against the running peak of equityLog.
func (s *DrawdownScaler) ComputeScale(equityLog []core.EquityLogEntry) decimal.Decimal {
	if len(equityLog) == 0 {
		return one
	}

	peak := zero
	for _, entry := range equityLog {
		if entry.Equity.GreaterThan(peak) {
			peak = entry.Equity
		}
	}
	if peak.LessThanOrEqual(zero) {
		return one
	}

	current := equityLog[len(equityLog)-1].Equity
	dd := peak.Sub(current).Div(peak)

	if dd.LessThanOrEqual(s.cfg.MaxDrawdownPct) {
		return one
	}
	if dd.GreaterThanOrEqual(s.cfg.FullStopPct) {
		return s.cfg.MinScale
	}

	rangeSize := s.cfg.FullStopPct.Sub(s.cfg.MaxDrawdownPct)
	if rangeSize.LessThanOrEqual(zero) {
		return s.cfg.MinScale
	}

	progress := dd.Sub(s.cfg.MaxDrawdownPct).Div(rangeSize)
	return one.Sub(progress.Mul(one.Sub(s.cfg.MinScale)))
}
