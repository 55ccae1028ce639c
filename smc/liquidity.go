package smc

import (
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// LiquiditySweep is an immutable record of a confirmed stop-hunt: price
// wicked through a swing level and closed back inside the range.
type LiquiditySweep struct {
	Direction   string // "bullish" (swept lows) or "bearish" (swept highs)
	SweptLevel  decimal.Decimal
	SweepWick   decimal.Decimal
	SweepBarIdx int
	Timestamp   time.Time
	Confirmed   bool
}

// LiquiditySweepDetector detects liquidity sweeps at confirmed swing
// highs/lows. Each swing level is swept at most once for the detector's
// lifetime — once added to the swept set it never re-triggers, regardless
// of cooldown expiry.
type LiquiditySweepDetector struct {
	minDepthATRMult decimal.Decimal
	cooldownBars    int
	maxSweeps       int

	sweeps      []LiquiditySweep
	sweptLevels map[int]bool
	cooldownMap map[int]int
}

// NewLiquiditySweepDetector builds a detector.
func NewLiquiditySweepDetector(minDepthATRMult decimal.Decimal, cooldownBars, maxSweeps int) *LiquiditySweepDetector {
	if cooldownBars <= 0 {
		cooldownBars = 10
	}
	if maxSweeps <= 0 {
		maxSweeps = 30
	}
	return &LiquiditySweepDetector{
		minDepthATRMult: minDepthATRMult,
		cooldownBars:    cooldownBars,
		maxSweeps:       maxSweeps,
		sweptLevels:     make(map[int]bool),
		cooldownMap:     make(map[int]int),
	}
}

// RecentSweeps returns a copy of the retained sweep history.
func (d *LiquiditySweepDetector) RecentSweeps() []LiquiditySweep {
	out := make([]LiquiditySweep, len(d.sweeps))
	copy(out, d.sweeps)
	return out
}

// LastBullishSweep returns the most recent bullish (swept-lows) sweep, or nil.
func (d *LiquiditySweepDetector) LastBullishSweep() *LiquiditySweep {
	for i := len(d.sweeps) - 1; i >= 0; i-- {
		if d.sweeps[i].Direction == "bullish" {
			return &d.sweeps[i]
		}
	}
	return nil
}

// LastBearishSweep returns the most recent bearish (swept-highs) sweep, or nil.
func (d *LiquiditySweepDetector) LastBearishSweep() *LiquiditySweep {
	for i := len(d.sweeps) - 1; i >= 0; i-- {
		if d.sweeps[i].Direction == "bearish" {
			return &d.sweeps[i]
		}
	}
	return nil
}

// CheckForSweeps scans confirmed swing highs/lows for a sweep on the
// current bar and returns any newly confirmed sweeps (typically 0 or 1).
func (d *LiquiditySweepDetector) CheckForSweeps(bar core.Bar, swingHighs, swingLows []SwingPoint, currentATR decimal.Decimal, barIdx int) []LiquiditySweep {
	var newSweeps []LiquiditySweep
	minDepth := d.minDepthATRMult.Mul(currentATR)

	for _, sl := range swingLows {
		if d.sweptLevels[sl.AbsIdx] || d.inCooldown(sl.AbsIdx, barIdx) {
			continue
		}
		if bar.Low.LessThan(sl.Price) && bar.Close.GreaterThan(sl.Price) {
			depth := sl.Price.Sub(bar.Low)
			if depth.GreaterThanOrEqual(minDepth) {
				sweep := LiquiditySweep{
					Direction:   "bullish",
					SweptLevel:  sl.Price,
					SweepWick:   bar.Low,
					SweepBarIdx: barIdx,
					Timestamp:   bar.Timestamp,
					Confirmed:   true,
				}
				d.register(sweep, sl.AbsIdx, barIdx)
				newSweeps = append(newSweeps, sweep)
			}
		}
	}

	for _, sh := range swingHighs {
		if d.sweptLevels[sh.AbsIdx] || d.inCooldown(sh.AbsIdx, barIdx) {
			continue
		}
		if bar.High.GreaterThan(sh.Price) && bar.Close.LessThan(sh.Price) {
			depth := bar.High.Sub(sh.Price)
			if depth.GreaterThanOrEqual(minDepth) {
				sweep := LiquiditySweep{
					Direction:   "bearish",
					SweptLevel:  sh.Price,
					SweepWick:   bar.High,
					SweepBarIdx: barIdx,
					Timestamp:   bar.Timestamp,
					Confirmed:   true,
				}
				d.register(sweep, sh.AbsIdx, barIdx)
				newSweeps = append(newSweeps, sweep)
			}
		}
	}

	return newSweeps
}

func (d *LiquiditySweepDetector) inCooldown(swingAbsIdx, currentBarIdx int) bool {
	last, ok := d.cooldownMap[swingAbsIdx]
	if !ok {
		return false
	}
	return currentBarIdx-last < d.cooldownBars
}

func (d *LiquiditySweepDetector) register(sweep LiquiditySweep, swingAbsIdx, barIdx int) {
	d.sweptLevels[swingAbsIdx] = true
	d.cooldownMap[swingAbsIdx] = barIdx
	d.sweeps = append(d.sweeps, sweep)
	if len(d.sweeps) > d.maxSweeps {
		d.sweeps = d.sweeps[len(d.sweeps)-d.maxSweeps:]
	}
}
