package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// VolatilityRegime buckets the ratio of current ATR to its rolling mean.
type VolatilityRegime string

const (
	VolatilityLow    VolatilityRegime = "LOW"
	VolatilityNormal VolatilityRegime = "NORMAL"
	VolatilityHigh   VolatilityRegime = "HIGH"
)

// ATRRegimeClassifier buckets volatility by comparing the current simple
// ATR against the mean of its own rolling history. Returns NORMAL during
// warmup (fewer than atrPeriod observations) and whenever the rolling mean
// is zero, since the ratio is undefined in both cases.
type ATRRegimeClassifier struct {
	atrPeriod      int
	regimeLookback int
	lowThreshold   decimal.Decimal
	highThreshold  decimal.Decimal

	history    []decimal.Decimal
	currentATR decimal.Decimal
}

// NewATRRegimeClassifier builds a classifier with the given tunables.
func NewATRRegimeClassifier(atrPeriod, regimeLookback int, lowThreshold, highThreshold decimal.Decimal) *ATRRegimeClassifier {
	return &ATRRegimeClassifier{
		atrPeriod:      atrPeriod,
		regimeLookback: regimeLookback,
		lowThreshold:   lowThreshold,
		highThreshold:  highThreshold,
	}
}

// DefaultATRRegimeClassifier returns period 14, lookback 50, thresholds
// 0.75/1.50.
func DefaultATRRegimeClassifier() *ATRRegimeClassifier {
	return NewATRRegimeClassifier(14, 50, decimal.NewFromFloat(0.75), decimal.NewFromFloat(1.50))
}

// CurrentATR returns the most recently computed ATR value.
func (c *ATRRegimeClassifier) CurrentATR() decimal.Decimal { return c.currentATR }

// Update recomputes ATR from bars, appends it to the rolling history
// (bounded to regimeLookback), and classifies the volatility regime.
func (c *ATRRegimeClassifier) Update(bars []core.Bar) VolatilityRegime {
	c.currentATR = simpleATR(bars, c.atrPeriod)

	c.history = append(c.history, c.currentATR)
	if len(c.history) > c.regimeLookback {
		c.history = c.history[len(c.history)-c.regimeLookback:]
	}

	if len(c.history) < c.atrPeriod {
		return VolatilityNormal
	}

	meanATR := mean(c.history)
	if meanATR.IsZero() {
		return VolatilityNormal
	}

	ratio := c.currentATR.Div(meanATR)
	switch {
	case ratio.LessThan(c.lowThreshold):
		return VolatilityLow
	case ratio.GreaterThan(c.highThreshold):
		return VolatilityHigh
	default:
		return VolatilityNormal
	}
}

func mean(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs))))
}
