package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

const gatedMaxBufferSize = 500

// RegimeGatedStrategy decorates any core.Strategy with a RegimeClassifier
// gate: signals from the inner strategy are only forwarded when the
// current regime is in the allowed set. The inner strategy is always
// called, even when its signal will be gated, so its own stateful
// components (swings, order blocks, FVGs) stay in sync with the bar
// stream regardless of gating.
type RegimeGatedStrategy struct {
	symbol string
	inner  core.Strategy

	allowedRegimes map[RegimeType]bool
	regimeClf      *RegimeClassifier

	bars []core.Bar
}

// NewRegimeGatedStrategy wraps inner with a regime gate. allowedRegimes
// lists the RegimeTypes whose signals are forwarded; any other regime
// suppresses the inner strategy's signal for that bar.
func NewRegimeGatedStrategy(inner core.Strategy, allowedRegimes []RegimeType, atrPeriod, adxPeriod, regimeLookback int) *RegimeGatedStrategy {
	allowed := make(map[RegimeType]bool, len(allowedRegimes))
	for _, r := range allowedRegimes {
		allowed[r] = true
	}
	return &RegimeGatedStrategy{
		symbol:         inner.Symbol(),
		inner:          inner,
		allowedRegimes: allowed,
		regimeClf:      NewRegimeClassifier(atrPeriod, adxPeriod, regimeLookback, decimal.NewFromFloat(0.75), decimal.NewFromFloat(1.50)),
	}
}

// Symbol implements core.Strategy.
func (s *RegimeGatedStrategy) Symbol() string { return s.symbol }

// CurrentATR implements core.Strategy, delegating to the inner strategy.
func (s *RegimeGatedStrategy) CurrentATR() decimal.Decimal { return s.inner.CurrentATR() }

// CurrentRegime returns the most recently classified regime, or nil before
// the first bar.
func (s *RegimeGatedStrategy) CurrentRegime() *MarketRegime { return s.regimeClf.Regime() }

// Inner returns the wrapped strategy.
func (s *RegimeGatedStrategy) Inner() core.Strategy { return s.inner }

// CalculateSignals implements core.Strategy.
//
// Pipeline:
//  1. Update own buffer (feeds the regime classifier).
//  2. Classify the current regime.
//  3. Always delegate to the inner strategy.
//  4. Gate: suppress the signal if the regime is not in the allowed set.
func (s *RegimeGatedStrategy) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.bars = append(s.bars, bar)
	if len(s.bars) > gatedMaxBufferSize {
		s.bars = s.bars[len(s.bars)-gatedMaxBufferSize:]
	}

	regime := s.regimeClf.Update(bar, s.bars)

	signal, ok := s.inner.CalculateSignals(bar)

	if !s.allowedRegimes[regime.RegimeType] {
		return core.Signal{}, false
	}
	return signal, ok
}
