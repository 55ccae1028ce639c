package strategy

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// fvgDirection is a standalone strategy-local gap direction — distinct
// from (and much simpler than) the full lifecycle-tracked FVG the smc
// package's FVGTracker maintains.
type fvgDirection int

const (
	fvgBullish fvgDirection = iota
	fvgBearish
)

// fvgZone is one open 3-candle gap this strategy is watching for a fill.
type fvgZone struct {
	direction fvgDirection
	top       decimal.Decimal
	bottom    decimal.Decimal
}

// FVGConfig holds FVG's tunables.
type FVGConfig struct {
	MaxOpenGaps   int
	MinGapSizePct decimal.Decimal
	ATRPeriod     int
	MaxBufferSize int
}

// DefaultFVGConfig returns the defaults: track up to 5 open gaps, require
// a gap at least 0.1% of its midpoint price.
func DefaultFVGConfig() FVGConfig {
	return FVGConfig{
		MaxOpenGaps:   5,
		MinGapSizePct: decimal.NewFromFloat(0.1),
		ATRPeriod:     14,
		MaxBufferSize: 500,
	}
}

// FVG is a standalone ICT 3-candle fair-value-gap strategy: it opens a
// tracked zone whenever bar[i-2] and bar[i] leave a gap between them, and
// enters LONG/SHORT the first time price returns into an open zone. EXIT
// fires when price closes beyond the *previous* bar's opposite extreme
// while in a position — not when the gap itself is invalidated.
type FVG struct {
	Base
	cfg        FVGConfig
	openGaps   []fvgZone
	inPosition core.OrderSide
	flat       bool
}

// NewFVG builds an FVG strategy for symbol/timeframe.
func NewFVG(symbol, timeframe string, cfg FVGConfig) *FVG {
	return &FVG{
		Base: NewBase(symbol, timeframe, cfg.MaxBufferSize, cfg.ATRPeriod),
		cfg:  cfg,
		flat: true,
	}
}

// CalculateSignals implements core.Strategy.
func (s *FVG) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.update(bar)
	bars := s.Bars()

	if !s.flat {
		if len(bars) >= 2 {
			prev := bars[len(bars)-2]
			if s.inPosition == core.SideBuy && bar.Close.LessThan(prev.Low) {
				s.flat = true
				return s.signal(bar, core.SignalExit, decimal.NewFromFloat(0.5)), true
			}
			if s.inPosition == core.SideSell && bar.Close.GreaterThan(prev.High) {
				s.flat = true
				return s.signal(bar, core.SignalExit, decimal.NewFromFloat(0.5)), true
			}
		}
	}

	if gap, ok := s.detectGap(bars); ok {
		s.openGaps = append(s.openGaps, gap)
		if len(s.openGaps) > s.cfg.MaxOpenGaps {
			s.openGaps = s.openGaps[len(s.openGaps)-s.cfg.MaxOpenGaps:]
		}
	}

	if sig, ok := s.checkGapFill(bar); ok {
		return sig, true
	}

	return core.Signal{}, false
}

func (s *FVG) detectGap(bars []core.Bar) (fvgZone, bool) {
	if len(bars) < 3 {
		return fvgZone{}, false
	}
	bar1 := bars[len(bars)-3]
	bar3 := bars[len(bars)-1]

	if bar1.High.LessThan(bar3.Low) {
		gapSize := bar3.Low.Sub(bar1.High)
		mid := bar3.Low.Add(bar1.High).Div(two)
		if mid.GreaterThan(decimal.Zero) && gapSize.Div(mid).Mul(hundred).GreaterThanOrEqual(s.cfg.MinGapSizePct) {
			return fvgZone{direction: fvgBullish, top: bar3.Low, bottom: bar1.High}, true
		}
	}
	if bar1.Low.GreaterThan(bar3.High) {
		gapSize := bar1.Low.Sub(bar3.High)
		mid := bar1.Low.Add(bar3.High).Div(two)
		if mid.GreaterThan(decimal.Zero) && gapSize.Div(mid).Mul(hundred).GreaterThanOrEqual(s.cfg.MinGapSizePct) {
			return fvgZone{direction: fvgBearish, top: bar1.Low, bottom: bar3.High}, true
		}
	}
	return fvgZone{}, false
}

func (s *FVG) checkGapFill(bar core.Bar) (core.Signal, bool) {
	filled := -1
	var sig core.Signal
	found := false

	for i, gap := range s.openGaps {
		if gap.direction == fvgBullish && bar.Low.LessThanOrEqual(gap.top) && bar.Close.GreaterThanOrEqual(gap.bottom) {
			if s.flat {
				s.flat, s.inPosition = false, core.SideBuy
				sig = s.signal(bar, core.SignalLong, decimal.NewFromFloat(0.7))
				filled, found = i, true
				break
			}
		}
		if gap.direction == fvgBearish && bar.High.GreaterThanOrEqual(gap.bottom) && bar.Close.LessThanOrEqual(gap.top) {
			if s.flat {
				s.flat, s.inPosition = false, core.SideSell
				sig = s.signal(bar, core.SignalShort, decimal.NewFromFloat(0.7))
				filled, found = i, true
				break
			}
		}
	}

	if filled >= 0 {
		s.openGaps = append(s.openGaps[:filled], s.openGaps[filled+1:]...)
	}
	return sig, found
}

func (s *FVG) signal(bar core.Bar, variant core.SignalVariant, strength decimal.Decimal) core.Signal {
	return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: variant, Strength: strength}
}

var two = decimal.NewFromInt(2)
