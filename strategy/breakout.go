package strategy

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	oneD    = decimal.NewFromInt(1)
)

// BreakoutConfig holds Breakout's tunables.
type BreakoutConfig struct {
	Lookback      int
	ATRPeriod     int
	VolumeFactor  decimal.Decimal
	MaxBufferSize int
}

// DefaultBreakoutConfig returns a 20-bar Donchian
// channel, 14-bar ATR (computed but not otherwise consulted by this
// strategy — CurrentATR exists for the risk manager to size against), and
// 1.5x average-volume confirmation.
func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		Lookback:      20,
		ATRPeriod:     14,
		VolumeFactor:  decimal.NewFromFloat(1.5),
		MaxBufferSize: 500,
	}
}

// Breakout is a Donchian-channel breakout/momentum strategy: LONG on a
// volume-confirmed close above the channel high, SHORT on a
// volume-confirmed close below the channel low, EXIT when price reverts
// through the *opposite* channel bound, not merely back inside the channel
// it broke out of.
type Breakout struct {
	Base
	cfg        BreakoutConfig
	inPosition core.OrderSide
	flat       bool
}

// NewBreakout builds a Breakout strategy for symbol/timeframe.
func NewBreakout(symbol, timeframe string, cfg BreakoutConfig) *Breakout {
	return &Breakout{
		Base: NewBase(symbol, timeframe, cfg.MaxBufferSize, cfg.ATRPeriod),
		cfg:  cfg,
		flat: true,
	}
}

// CalculateSignals implements core.Strategy.
func (s *Breakout) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.update(bar)
	bars := s.Bars()

	minBars := s.cfg.Lookback + 1
	if len(bars) < minBars {
		return core.Signal{}, false
	}

	window := bars[len(bars)-s.cfg.Lookback-1 : len(bars)-1]
	channelHigh, channelLow := window[0].High, window[0].Low
	volumeSum := int64(0)
	for _, b := range window {
		if b.High.GreaterThan(channelHigh) {
			channelHigh = b.High
		}
		if b.Low.LessThan(channelLow) {
			channelLow = b.Low
		}
		volumeSum += b.Volume
	}
	avgVolume := decimal.NewFromInt(volumeSum).Div(decimal.NewFromInt(int64(len(window))))
	currentVolume := decimal.NewFromInt(bar.Volume)

	if !s.flat && s.inPosition == core.SideBuy && bar.Close.LessThan(channelLow) {
		s.flat = true
		return s.signal(bar, core.SignalExit, decimal.NewFromFloat(0.5)), true
	}
	if !s.flat && s.inPosition == core.SideSell && bar.Close.GreaterThan(channelHigh) {
		s.flat = true
		return s.signal(bar, core.SignalExit, decimal.NewFromFloat(0.5)), true
	}

	if s.flat && bar.Close.GreaterThan(channelHigh) {
		if currentVolume.GreaterThanOrEqual(avgVolume.Mul(s.cfg.VolumeFactor)) {
			s.flat, s.inPosition = false, core.SideBuy
			strength := bar.Close.Sub(channelHigh).Div(channelHigh).Mul(hundred)
			return s.signal(bar, core.SignalLong, decimal.Min(strength, oneD)), true
		}
	}
	if s.flat && bar.Close.LessThan(channelLow) {
		if currentVolume.GreaterThanOrEqual(avgVolume.Mul(s.cfg.VolumeFactor)) {
			s.flat, s.inPosition = false, core.SideSell
			strength := channelLow.Sub(bar.Close).Div(channelLow).Mul(hundred)
			return s.signal(bar, core.SignalShort, decimal.Min(strength, oneD)), true
		}
	}

	return core.Signal{}, false
}

func (s *Breakout) signal(bar core.Bar, variant core.SignalVariant, strength decimal.Decimal) core.Signal {
	return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: variant, Strength: strength}
}
