package smc

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// OBState is an Order Block's lifecycle state.
type OBState string

const (
	OBActive      OBState = "ACTIVE"
	OBMitigated   OBState = "MITIGATED"
	OBInvalidated OBState = "INVALIDATED"
)

// OrderBlock is a mutable record of the last opposing candle before a
// displacement move that broke market structure.
type OrderBlock struct {
	Direction    string // "bullish" or "bearish"
	High         decimal.Decimal
	Low          decimal.Decimal
	Mid          decimal.Decimal
	FormedBarIdx int
	State        OBState
}

// ZoneSize returns the Order Block's price span.
func (o *OrderBlock) ZoneSize() decimal.Decimal { return o.High.Sub(o.Low) }

// OrderBlockDetector detects and manages Order Blocks triggered by BOS/CHOCH
// events. Detection only ever scans backward for a candle already in the
// buffer — the OB candle is always strictly in the past relative to the
// break that confirmed it.
type OrderBlockDetector struct {
	atrMultThreshold decimal.Decimal
	lookbackBars     int
	maxActive        int
	maxAgeBars       int
	closeMitigation  bool
	blocks           []*OrderBlock
}

// NewOrderBlockDetector builds a detector.
func NewOrderBlockDetector(atrMultThreshold decimal.Decimal, lookbackBars, maxActive, maxAgeBars int, closeMitigation bool) *OrderBlockDetector {
	if lookbackBars <= 0 {
		lookbackBars = 10
	}
	if maxActive <= 0 {
		maxActive = 5
	}
	if maxAgeBars <= 0 {
		maxAgeBars = 100
	}
	return &OrderBlockDetector{
		atrMultThreshold: atrMultThreshold,
		lookbackBars:     lookbackBars,
		maxActive:        maxActive,
		maxAgeBars:       maxAgeBars,
		closeMitigation:  closeMitigation,
	}
}

// ActiveOBs returns the currently ACTIVE order blocks.
func (d *OrderBlockDetector) ActiveOBs() []*OrderBlock {
	var out []*OrderBlock
	for _, ob := range d.blocks {
		if ob.State == OBActive {
			out = append(out, ob)
		}
	}
	return out
}

// AllOBs returns every tracked order block, including terminal ones.
func (d *OrderBlockDetector) AllOBs() []*OrderBlock {
	out := make([]*OrderBlock, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// ScanForNewOB scans backward from the BOS bar for the opposing candle that
// qualifies as the Order Block, provided the displacement from the lookback
// window's lowest low (highest high for a bearish break) to the current
// close clears atrMultThreshold * atr. Returns nil when structureBreak is nil or
// no qualifying candle is found.
func (d *OrderBlockDetector) ScanForNewOB(buf []core.Bar, barCount int, atr decimal.Decimal, structureBreak *StructureBreak) *OrderBlock {
	if structureBreak == nil || len(buf) < 3 {
		return nil
	}
	current := buf[len(buf)-1]
	if structureBreak.Direction == "bullish" {
		return d.scanBullish(buf, barCount, atr, current)
	}
	return d.scanBearish(buf, barCount, atr, current)
}

func (d *OrderBlockDetector) scanBullish(buf []core.Bar, barCount int, atr decimal.Decimal, current core.Bar) *OrderBlock {
	lookback := d.lookbackBars
	if lookback > len(buf)-1 {
		lookback = len(buf) - 1
	}
	scanStart := len(buf) - 1 - lookback
	if scanStart < 0 {
		scanStart = 0
	}

	recentLow := buf[scanStart].Low
	for _, b := range buf[scanStart:] {
		if b.Low.LessThan(recentLow) {
			recentLow = b.Low
		}
	}
	displacement := current.Close.Sub(recentLow)
	if displacement.LessThan(atr.Mul(d.atrMultThreshold)) {
		return nil
	}

	for i := len(buf) - 2; i >= scanStart; i-- {
		b := buf[i]
		if b.Close.LessThan(b.Open) {
			obIdx := barCount - (len(buf) - 1 - i)
			ob := &OrderBlock{
				Direction:    "bullish",
				High:         b.High,
				Low:          b.Low,
				Mid:          b.High.Add(b.Low).Div(two),
				FormedBarIdx: obIdx,
				State:        OBActive,
			}
			d.blocks = append(d.blocks, ob)
			d.enforceLimits(barCount)
			return ob
		}
	}
	return nil
}

func (d *OrderBlockDetector) scanBearish(buf []core.Bar, barCount int, atr decimal.Decimal, current core.Bar) *OrderBlock {
	lookback := d.lookbackBars
	if lookback > len(buf)-1 {
		lookback = len(buf) - 1
	}
	scanStart := len(buf) - 1 - lookback
	if scanStart < 0 {
		scanStart = 0
	}

	recentHigh := buf[scanStart].High
	for _, b := range buf[scanStart:] {
		if b.High.GreaterThan(recentHigh) {
			recentHigh = b.High
		}
	}
	displacement := recentHigh.Sub(current.Close)
	if displacement.LessThan(atr.Mul(d.atrMultThreshold)) {
		return nil
	}

	for i := len(buf) - 2; i >= scanStart; i-- {
		b := buf[i]
		if b.Close.GreaterThan(b.Open) {
			obIdx := barCount - (len(buf) - 1 - i)
			ob := &OrderBlock{
				Direction:    "bearish",
				High:         b.High,
				Low:          b.Low,
				Mid:          b.High.Add(b.Low).Div(two),
				FormedBarIdx: obIdx,
				State:        OBActive,
			}
			d.blocks = append(d.blocks, ob)
			d.enforceLimits(barCount)
			return ob
		}
	}
	return nil
}

// UpdateOBStates transitions every ACTIVE order block against the current
// bar: age expiry, then direction-specific mitigation/invalidation.
func (d *OrderBlockDetector) UpdateOBStates(bar core.Bar, barCount int) {
	for _, ob := range d.blocks {
		if ob.State != OBActive {
			continue
		}
		if barCount-ob.FormedBarIdx > d.maxAgeBars {
			ob.State = OBInvalidated
			continue
		}
		if ob.Direction == "bullish" {
			d.updateBullish(ob, bar)
		} else {
			d.updateBearish(ob, bar)
		}
	}
}

func (d *OrderBlockDetector) updateBullish(ob *OrderBlock, bar core.Bar) {
	if bar.Close.LessThan(ob.Mid) {
		ob.State = OBInvalidated
		return
	}
	if d.closeMitigation {
		if bar.Close.LessThanOrEqual(ob.High) && bar.Close.GreaterThanOrEqual(ob.Low) {
			ob.State = OBMitigated
		}
	} else if bar.Low.LessThanOrEqual(ob.High) && bar.Low.GreaterThanOrEqual(ob.Low) {
		ob.State = OBMitigated
	}
}

func (d *OrderBlockDetector) updateBearish(ob *OrderBlock, bar core.Bar) {
	if bar.Close.GreaterThan(ob.Mid) {
		ob.State = OBInvalidated
		return
	}
	if d.closeMitigation {
		if bar.Close.GreaterThanOrEqual(ob.Low) && bar.Close.LessThanOrEqual(ob.High) {
			ob.State = OBMitigated
		}
	} else if bar.High.GreaterThanOrEqual(ob.Low) && bar.High.LessThanOrEqual(ob.High) {
		ob.State = OBMitigated
	}
}

// enforceLimits invalidates the oldest ACTIVE block while more than
// maxActive remain, then prunes blocks that are both terminal and past
// maxAgeBars.
func (d *OrderBlockDetector) enforceLimits(barCount int) {
	for {
		active := d.ActiveOBs()
		if len(active) <= d.maxActive {
			break
		}
		oldest := active[0]
		for _, ob := range active[1:] {
			if ob.FormedBarIdx < oldest.FormedBarIdx {
				oldest = ob
			}
		}
		oldest.State = OBInvalidated
	}

	kept := d.blocks[:0:0]
	for _, ob := range d.blocks {
		if ob.State == OBActive || barCount-ob.FormedBarIdx <= d.maxAgeBars {
			kept = append(kept, ob)
		}
	}
	d.blocks = kept
}
