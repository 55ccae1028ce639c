package smc

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendState is the market-structure trend MarketStructureTracker maintains.
type TrendState string

const (
	TrendUndefined TrendState = "UNDEFINED"
	TrendUp        TrendState = "UPTREND"
	TrendDown      TrendState = "DOWNTREND"
)

// BreakType distinguishes a continuation break from a reversal break.
type BreakType string

const (
	BreakBOS   BreakType = "BOS"
	BreakCHOCH BreakType = "CHOCH"
)

// StructureBreak is an immutable record of a confirmed BOS or CHOCH.
type StructureBreak struct {
	Type        BreakType
	Direction   string // "bullish" or "bearish"
	BrokenLevel decimal.Decimal
	Timestamp   time.Time
	BarIdx      int
}

// MarketStructureTracker tracks trend state via the last registered swing
// high/low and raises BOS (break with the trend, or from UNDEFINED) or
// CHOCH (break against the trend) on close-only confirmation — wicks never
// count.
type MarketStructureTracker struct {
	maxHistory   int
	trend        TrendState
	lastHigh     *SwingPoint
	lastLow      *SwingPoint
	breaks       []StructureBreak
	lastBreakBar int
}

// NewMarketStructureTracker builds a tracker starting in TrendUndefined.
func NewMarketStructureTracker(maxHistory int) *MarketStructureTracker {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &MarketStructureTracker{maxHistory: maxHistory, trend: TrendUndefined, lastBreakBar: -1}
}

// Trend returns the current trend state.
func (t *MarketStructureTracker) Trend() TrendState { return t.trend }

// Breaks returns a copy of the retained structure-break history.
func (t *MarketStructureTracker) Breaks() []StructureBreak {
	out := make([]StructureBreak, len(t.breaks))
	copy(out, t.breaks)
	return out
}

// LastSwingHigh returns the most recently registered swing high, or nil.
func (t *MarketStructureTracker) LastSwingHigh() *SwingPoint { return t.lastHigh }

// LastSwingLow returns the most recently registered swing low, or nil.
func (t *MarketStructureTracker) LastSwingLow() *SwingPoint { return t.lastLow }

// OnNewSwingHigh registers a newly confirmed swing high as the break-level
// candidate for a future bullish break.
func (t *MarketStructureTracker) OnNewSwingHigh(sh SwingPoint) { t.lastHigh = &sh }

// OnNewSwingLow registers a newly confirmed swing low as the break-level
// candidate for a future bearish break.
func (t *MarketStructureTracker) OnNewSwingLow(sl SwingPoint) { t.lastLow = &sl }

// OnBarClose checks whether close breaks the registered swing high/low and
// returns the resulting BOS/CHOCH, or nil. At most one break is raised per
// bar index.
func (t *MarketStructureTracker) OnBarClose(close decimal.Decimal, barIdx int, timestamp time.Time) *StructureBreak {
	if barIdx <= t.lastBreakBar {
		return nil
	}

	var result *StructureBreak

	switch {
	case t.lastHigh != nil && close.GreaterThan(t.lastHigh.Price):
		bt := BreakBOS
		if t.trend == TrendDown {
			bt = BreakCHOCH
		}
		result = &StructureBreak{
			Type:        bt,
			Direction:   "bullish",
			BrokenLevel: t.lastHigh.Price,
			Timestamp:   timestamp,
			BarIdx:      barIdx,
		}
		t.trend = TrendUp
	case t.lastLow != nil && close.LessThan(t.lastLow.Price):
		bt := BreakBOS
		if t.trend == TrendUp {
			bt = BreakCHOCH
		}
		result = &StructureBreak{
			Type:        bt,
			Direction:   "bearish",
			BrokenLevel: t.lastLow.Price,
			Timestamp:   timestamp,
			BarIdx:      barIdx,
		}
		t.trend = TrendDown
	}

	if result != nil {
		t.lastBreakBar = barIdx
		t.breaks = append(t.breaks, *result)
		if len(t.breaks) > t.maxHistory {
			t.breaks = t.breaks[len(t.breaks)-t.maxHistory:]
		}
	}

	return result
}
