package strategy

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// ReversalConfig holds Reversal's tunables.
type ReversalConfig struct {
	SMAPeriod     int
	RSIPeriod     int
	RSIOversold   decimal.Decimal
	RSIOverbought decimal.Decimal
	ATRPeriod     int
	MaxBufferSize int
}

// DefaultReversalConfig returns a 20-bar SMA filter (tracked only to size
// the minimum-bars warmup — the SMA value itself is never consulted in the
// entry/exit logic), 14-bar RSI, oversold/overbought at 30/70.
func DefaultReversalConfig() ReversalConfig {
	return ReversalConfig{
		SMAPeriod:     20,
		RSIPeriod:     14,
		RSIOversold:   decimal.NewFromInt(30),
		RSIOverbought: decimal.NewFromInt(70),
		ATRPeriod:     14,
		MaxBufferSize: 500,
	}
}

// Reversal is a mean-reversion strategy: LONG when RSI dips below
// RSIOversold, SHORT when it rises above RSIOverbought, EXIT when RSI
// crosses back through the neutral midpoint (50).
type Reversal struct {
	Base
	cfg        ReversalConfig
	inPosition core.OrderSide
	flat       bool
}

// NewReversal builds a Reversal strategy for symbol/timeframe.
func NewReversal(symbol, timeframe string, cfg ReversalConfig) *Reversal {
	return &Reversal{
		Base: NewBase(symbol, timeframe, cfg.MaxBufferSize, cfg.ATRPeriod),
		cfg:  cfg,
		flat: true,
	}
}

// CalculateSignals implements core.Strategy.
func (s *Reversal) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.update(bar)
	bars := s.Bars()

	minBars := s.cfg.SMAPeriod
	if s.cfg.RSIPeriod > minBars {
		minBars = s.cfg.RSIPeriod
	}
	minBars++
	if len(bars) < minBars {
		return core.Signal{}, false
	}

	closes := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	rsi, ok := WilderRSI(closes, s.cfg.RSIPeriod)
	if !ok {
		return core.Signal{}, false
	}

	fifty := decimal.NewFromInt(50)

	if !s.flat && s.inPosition == core.SideBuy && rsi.GreaterThan(fifty) {
		s.flat = true
		return s.signal(bar, core.SignalExit, round4(rsi.Div(hundred))), true
	}
	if !s.flat && s.inPosition == core.SideSell && rsi.LessThan(fifty) {
		s.flat = true
		return s.signal(bar, core.SignalExit, round4(rsi.Div(hundred))), true
	}

	if s.flat && rsi.LessThan(s.cfg.RSIOversold) {
		s.flat, s.inPosition = false, core.SideBuy
		strength := s.cfg.RSIOversold.Sub(rsi).Div(s.cfg.RSIOversold)
		return s.signal(bar, core.SignalLong, round4(strength)), true
	}
	if s.flat && rsi.GreaterThan(s.cfg.RSIOverbought) {
		s.flat, s.inPosition = false, core.SideSell
		strength := rsi.Sub(s.cfg.RSIOverbought).Div(hundred.Sub(s.cfg.RSIOverbought))
		return s.signal(bar, core.SignalShort, round4(strength)), true
	}

	return core.Signal{}, false
}

func (s *Reversal) signal(bar core.Bar, variant core.SignalVariant, strength decimal.Decimal) core.Signal {
	return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: variant, Strength: strength}
}

func round4(d decimal.Decimal) decimal.Decimal { return d.Round(4) }
