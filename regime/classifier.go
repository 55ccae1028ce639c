package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// RegimeType is the composite 2D classification of trend strength and
// volatility regime.
type RegimeType string

const (
	RegimeStrongTrend   RegimeType = "STRONG_TREND"
	RegimeModerateTrend RegimeType = "MODERATE_TREND"
	RegimeWeakTrend     RegimeType = "WEAK_TREND"
	RegimeRangingLow    RegimeType = "RANGING_LOW"
	RegimeRangingNormal RegimeType = "RANGING_NORMAL"
	RegimeChoppy        RegimeType = "CHOPPY"
)

// MarketRegime is an immutable snapshot of the current market regime.
type MarketRegime struct {
	RegimeType      RegimeType
	ADX             decimal.Decimal
	ADXTrend        string // "rising" or "falling"
	VolRegime       VolatilityRegime
	CurrentATR      decimal.Decimal
	PlusDI          decimal.Decimal
	MinusDI         decimal.Decimal
	BullishPressure bool
}

type regimeKey struct {
	trend TrendStrength
	vol   VolatilityRegime
}

var regimeMatrix = map[regimeKey]RegimeType{
	{TrendStrongTrend, VolatilityLow}:    RegimeWeakTrend,
	{TrendStrongTrend, VolatilityNormal}: RegimeStrongTrend,
	{TrendStrongTrend, VolatilityHigh}:   RegimeStrongTrend,

	{TrendTrending, VolatilityLow}:    RegimeWeakTrend,
	{TrendTrending, VolatilityNormal}: RegimeModerateTrend,
	{TrendTrending, VolatilityHigh}:   RegimeWeakTrend,

	{TrendWeak, VolatilityLow}:    RegimeWeakTrend,
	{TrendWeak, VolatilityNormal}: RegimeWeakTrend,
	{TrendWeak, VolatilityHigh}:   RegimeWeakTrend,

	{TrendRanging, VolatilityLow}:    RegimeRangingLow,
	{TrendRanging, VolatilityNormal}: RegimeRangingNormal,
	{TrendRanging, VolatilityHigh}:   RegimeChoppy,
}

// RegimeClassifier combines an ATRRegimeClassifier and an ADXClassifier
// into one composite MarketRegime per bar.
type RegimeClassifier struct {
	atrClf *ATRRegimeClassifier
	adxClf *ADXClassifier

	regime  *MarketRegime
	prevADX decimal.Decimal
}

// NewRegimeClassifier builds a composite classifier from the given periods
// and volatility thresholds.
func NewRegimeClassifier(atrPeriod, adxPeriod, regimeLookback int, lowVolThreshold, highVolThreshold decimal.Decimal) *RegimeClassifier {
	return &RegimeClassifier{
		atrClf: NewATRRegimeClassifier(atrPeriod, regimeLookback, lowVolThreshold, highVolThreshold),
		adxClf: NewADXClassifier(adxPeriod),
	}
}

// DefaultRegimeClassifier returns ATR period 14, ADX period 14, lookback
// 50, thresholds 0.75/1.50.
func DefaultRegimeClassifier() *RegimeClassifier {
	return NewRegimeClassifier(14, 14, 50, decimal.NewFromFloat(0.75), decimal.NewFromFloat(1.50))
}

// Regime returns the most recently computed MarketRegime, or nil before the
// first Update call.
func (c *RegimeClassifier) Regime() *MarketRegime { return c.regime }

// Update feeds one new bar (with its accumulated buffer, most recent last)
// and returns the resulting composite MarketRegime.
func (c *RegimeClassifier) Update(bar core.Bar, barBuffer []core.Bar) MarketRegime {
	volRegime := c.atrClf.Update(barBuffer)

	if len(barBuffer) >= 2 {
		prevBar := barBuffer[len(barBuffer)-2]
		c.adxClf.Update(bar, prevBar)
	}

	trendStrength := c.adxClf.Classify()
	adx := c.adxClf.ADX()

	adxTrend := "falling"
	if adx.GreaterThanOrEqual(c.prevADX) {
		adxTrend = "rising"
	}
	c.prevADX = adx

	bullishPressure := c.adxClf.PlusDI().GreaterThan(c.adxClf.MinusDI())

	regimeType, ok := regimeMatrix[regimeKey{trendStrength, volRegime}]
	if !ok {
		regimeType = RegimeRangingNormal
	}

	regime := MarketRegime{
		RegimeType:      regimeType,
		ADX:             adx,
		ADXTrend:        adxTrend,
		VolRegime:       volRegime,
		CurrentATR:      c.atrClf.CurrentATR(),
		PlusDI:          c.adxClf.PlusDI(),
		MinusDI:         c.adxClf.MinusDI(),
		BullishPressure: bullishPressure,
	}
	c.regime = &regime
	return regime
}
