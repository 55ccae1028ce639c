package regime

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// TrendStrength buckets Wilder's ADX into four trend-strength regimes.
type TrendStrength string

const (
	TrendRanging     TrendStrength = "RANGING"
	TrendWeak        TrendStrength = "WEAK_TREND"
	TrendTrending    TrendStrength = "TRENDING"
	TrendStrongTrend TrendStrength = "STRONG_TREND"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ADXClassifier computes Wilder's ADX from first principles and classifies
// trend strength.
//
// Two-phase algorithm:
//
//	Phase A (first `period` bars): accumulate raw TR / +DM / -DM.
//	Phase B (subsequent bars): Wilder's smoothing for TR, +DM, -DM, ADX.
type ADXClassifier struct {
	period int

	rawTR      []decimal.Decimal
	rawPlusDM  []decimal.Decimal
	rawMinusDM []decimal.Decimal
	phaseADone bool

	smoothTR      decimal.Decimal
	smoothPlusDM  decimal.Decimal
	smoothMinusDM decimal.Decimal

	dxAccumulator []decimal.Decimal
	adx           decimal.Decimal
	adxSeeded     bool

	plusDI  decimal.Decimal
	minusDI decimal.Decimal

	barCount int
}

// NewADXClassifier builds a classifier smoothing over period bars.
func NewADXClassifier(period int) *ADXClassifier {
	return &ADXClassifier{period: period}
}

// DefaultADXClassifier returns a 14-period classifier.
func DefaultADXClassifier() *ADXClassifier { return NewADXClassifier(14) }

// ADX returns the current smoothed ADX value.
func (c *ADXClassifier) ADX() decimal.Decimal { return c.adx }

// PlusDI returns the current smoothed +DI value.
func (c *ADXClassifier) PlusDI() decimal.Decimal { return c.plusDI }

// MinusDI returns the current smoothed -DI value.
func (c *ADXClassifier) MinusDI() decimal.Decimal { return c.minusDI }

// Update feeds a new bar pair and returns the current ADX value.
func (c *ADXClassifier) Update(bar, prevBar core.Bar) decimal.Decimal {
	c.barCount++

	tr := trueRange(bar, prevBar)
	plusDM, minusDM := directionalMovement(bar, prevBar)

	if !c.phaseADone {
		c.phaseA(tr, plusDM, minusDM)
	} else {
		c.phaseB(tr, plusDM, minusDM)
	}

	return c.adx
}

// Classify buckets the current ADX into a trend-strength regime.
func (c *ADXClassifier) Classify() TrendStrength {
	switch {
	case c.adx.LessThan(decimal.NewFromInt(20)):
		return TrendRanging
	case c.adx.LessThan(decimal.NewFromInt(25)):
		return TrendWeak
	case c.adx.LessThan(decimal.NewFromInt(40)):
		return TrendTrending
	default:
		return TrendStrongTrend
	}
}

// phaseA collects the first `period` raw values, then seeds Phase B's
// smoothed sums and computes the first DI/DX pair.
func (c *ADXClassifier) phaseA(tr, plusDM, minusDM decimal.Decimal) {
	c.rawTR = append(c.rawTR, tr)
	c.rawPlusDM = append(c.rawPlusDM, plusDM)
	c.rawMinusDM = append(c.rawMinusDM, minusDM)

	if len(c.rawTR) < c.period {
		return
	}

	c.smoothTR = sumDecimal(c.rawTR)
	c.smoothPlusDM = sumDecimal(c.rawPlusDM)
	c.smoothMinusDM = sumDecimal(c.rawMinusDM)

	c.updateDI()
	dx := c.computeDX()
	c.dxAccumulator = append(c.dxAccumulator, dx)

	c.phaseADone = true
	c.rawTR = nil
	c.rawPlusDM = nil
	c.rawMinusDM = nil
}

// phaseB applies Wilder's smoothing to TR/+DM/-DM, then seeds or smooths
// ADX from the resulting DX series.
func (c *ADXClassifier) phaseB(tr, plusDM, minusDM decimal.Decimal) {
	p := decimal.NewFromInt(int64(c.period))

	c.smoothTR = c.smoothTR.Sub(c.smoothTR.Div(p)).Add(tr)
	c.smoothPlusDM = c.smoothPlusDM.Sub(c.smoothPlusDM.Div(p)).Add(plusDM)
	c.smoothMinusDM = c.smoothMinusDM.Sub(c.smoothMinusDM.Div(p)).Add(minusDM)

	c.updateDI()
	dx := c.computeDX()

	if !c.adxSeeded {
		c.dxAccumulator = append(c.dxAccumulator, dx)
		if len(c.dxAccumulator) >= c.period {
			c.adx = sumDecimal(c.dxAccumulator).Div(p)
			c.adxSeeded = true
			c.dxAccumulator = nil
		}
		return
	}

	c.adx = c.adx.Mul(p.Sub(one)).Add(dx).Div(p)
}

func (c *ADXClassifier) updateDI() {
	if c.smoothTR.IsZero() {
		c.plusDI = decimal.Zero
		c.minusDI = decimal.Zero
		return
	}
	c.plusDI = c.smoothPlusDM.Div(c.smoothTR).Mul(hundred)
	c.minusDI = c.smoothMinusDM.Div(c.smoothTR).Mul(hundred)
}

func (c *ADXClassifier) computeDX() decimal.Decimal {
	diSum := c.plusDI.Add(c.minusDI)
	if diSum.IsZero() {
		return decimal.Zero
	}
	return c.plusDI.Sub(c.minusDI).Abs().Div(diSum).Mul(hundred)
}

func trueRange(bar, prevBar core.Bar) decimal.Decimal {
	return decimal.Max(
		bar.High.Sub(bar.Low),
		bar.High.Sub(prevBar.Close).Abs(),
		bar.Low.Sub(prevBar.Close).Abs(),
	)
}

func directionalMovement(bar, prevBar core.Bar) (decimal.Decimal, decimal.Decimal) {
	upMove := bar.High.Sub(prevBar.High)
	downMove := prevBar.Low.Sub(bar.Low)

	plusDM := decimal.Zero
	if upMove.GreaterThan(downMove) && upMove.GreaterThan(decimal.Zero) {
		plusDM = upMove
	}
	minusDM := decimal.Zero
	if downMove.GreaterThan(upMove) && downMove.GreaterThan(decimal.Zero) {
		minusDM = downMove
	}
	return plusDM, minusDM
}

func sumDecimal(xs []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum
}
