package smc

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// InducementPoint is an immutable record of an inducement (IDM) level — a
// minor swing acting as a retail trap between a BOS and its continuation.
type InducementPoint struct {
	Direction     string // "bullish" or "bearish" (trap direction)
	Level         decimal.Decimal
	BarIdx        int
	Cleared       bool
	ClearedBarIdx *int
}

// InducementDetector tracks inducement points using a secondary,
// lower-strength SwingDetector for minor swings, while the primary
// (structural) swings are supplied by the caller's main SwingDetector.
type InducementDetector struct {
	secondary *SwingDetector
	maxIDM    int

	active     []InducementPoint
	lastBOSBar int
}

// NewInducementDetector builds a detector. secondaryStrength must be lower
// than the primary detector's strength to catch smaller retracements.
func NewInducementDetector(secondaryStrength, maxIDM int) (*InducementDetector, error) {
	sec, err := NewSwingDetector(secondaryStrength, 50)
	if err != nil {
		return nil, err
	}
	if maxIDM <= 0 {
		maxIDM = 10
	}
	return &InducementDetector{secondary: sec, maxIDM: maxIDM, lastBOSBar: -1}, nil
}

// FeedBar feeds the current bar buffer to the internal secondary
// SwingDetector. Must be called every bar to keep minor-swing detection in
// sync with the primary detector's buffer.
func (d *InducementDetector) FeedBar(buf []core.Bar, barCount int) {
	d.secondary.DetectConfirmedSwings(buf, barCount)
}

// DetectInducement scans for a new inducement point after a BOS/CHOCH.
// Triggers at most once per distinct break (tracked by bar index).
func (d *InducementDetector) DetectInducement(primaryHighs, primaryLows []SwingPoint, lastBOS *StructureBreak, barIdx int) *InducementPoint {
	if lastBOS == nil || lastBOS.BarIdx == d.lastBOSBar {
		return nil
	}
	d.lastBOSBar = lastBOS.BarIdx

	var idm *InducementPoint
	if lastBOS.Direction == "bullish" {
		idm = d.findBullish(lastBOS.BarIdx, barIdx)
	} else if lastBOS.Direction == "bearish" {
		idm = d.findBearish(lastBOS.BarIdx, barIdx)
	}

	if idm != nil {
		d.active = append(d.active, *idm)
		if len(d.active) > d.maxIDM {
			d.active = d.active[len(d.active)-d.maxIDM:]
		}
	}
	return idm
}

func (d *InducementDetector) findBullish(bosBar, currentBar int) *InducementPoint {
	var lowest *SwingPoint
	for _, sl := range d.secondary.SwingLows() {
		sl := sl
		if sl.AbsIdx <= bosBar || sl.AbsIdx >= currentBar {
			continue
		}
		if lowest == nil || sl.Price.LessThan(lowest.Price) {
			lowest = &sl
		}
	}
	if lowest == nil {
		return nil
	}
	return &InducementPoint{Direction: "bullish", Level: lowest.Price, BarIdx: lowest.AbsIdx}
}

func (d *InducementDetector) findBearish(bosBar, currentBar int) *InducementPoint {
	var highest *SwingPoint
	for _, sh := range d.secondary.SwingHighs() {
		sh := sh
		if sh.AbsIdx <= bosBar || sh.AbsIdx >= currentBar {
			continue
		}
		if highest == nil || sh.Price.GreaterThan(highest.Price) {
			highest = &sh
		}
	}
	if highest == nil {
		return nil
	}
	return &InducementPoint{Direction: "bearish", Level: highest.Price, BarIdx: highest.AbsIdx}
}

// CheckIDMCleared checks whether the current bar sweeps through any active,
// not-yet-cleared IDM level and returns the now-cleared point, or nil.
func (d *InducementDetector) CheckIDMCleared(bar core.Bar, barIdx int) *InducementPoint {
	for i := range d.active {
		idm := &d.active[i]
		if idm.Cleared {
			continue
		}
		cleared := false
		if idm.Direction == "bullish" && bar.Low.LessThan(idm.Level) {
			cleared = true
		} else if idm.Direction == "bearish" && bar.High.GreaterThan(idm.Level) {
			cleared = true
		}
		if cleared {
			idm.Cleared = true
			bi := barIdx
			idm.ClearedBarIdx = &bi
			return idm
		}
	}
	return nil
}

// HasClearedIDM reports whether any active IDM in the given direction has
// been cleared.
func (d *InducementDetector) HasClearedIDM(direction string) bool {
	for _, idm := range d.active {
		if idm.Cleared && idm.Direction == direction {
			return true
		}
	}
	return false
}
