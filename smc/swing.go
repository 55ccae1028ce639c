package smc

import (
	"fmt"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// SwingPoint is an immutable confirmed swing high or swing low.
type SwingPoint struct {
	Price     decimal.Decimal
	Timestamp time.Time
	AbsIdx    int
}

// SwingDetector finds fractal swing highs/lows with configurable strength.
// A swing at index i confirms once it has Strength bars on each side with
// strictly lower highs (swing high) or strictly higher lows (swing low).
// Confirmation only happens once the right-side bars have formed, so a
// swing is never reported before the bars that confirm it exist.
type SwingDetector struct {
	strength   int
	maxHistory int
	swingHighs []SwingPoint
	swingLows  []SwingPoint
}

// NewSwingDetector builds a SwingDetector. strength must be >= 1; the
// classic 5-bar fractal is strength 2. maxHistory bounds the retained
// swing points per direction.
func NewSwingDetector(strength, maxHistory int) (*SwingDetector, error) {
	if strength < 1 {
		return nil, fmt.Errorf("smc: swing strength must be >= 1, got %d", strength)
	}
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &SwingDetector{strength: strength, maxHistory: maxHistory}, nil
}

// Strength returns the configured fractal strength.
func (d *SwingDetector) Strength() int { return d.strength }

// SwingHighs returns a copy of the confirmed swing highs, oldest first.
func (d *SwingDetector) SwingHighs() []SwingPoint {
	out := make([]SwingPoint, len(d.swingHighs))
	copy(out, d.swingHighs)
	return out
}

// SwingLows returns a copy of the confirmed swing lows, oldest first.
func (d *SwingDetector) SwingLows() []SwingPoint {
	out := make([]SwingPoint, len(d.swingLows))
	copy(out, d.swingLows)
	return out
}

// DetectConfirmedSwings scans the rolling buffer's fractal candidate — the
// bar sitting strength+1 positions from the end — and returns any newly
// confirmed swing high/low at that position. barCount is the 1-based
// absolute index of the most recent bar in buf.
func (d *SwingDetector) DetectConfirmedSwings(buf []core.Bar, barCount int) (newHighs, newLows []SwingPoint) {
	s := d.strength
	minBars := 2*s + 1
	if len(buf) < minBars {
		return nil, nil
	}

	candidateIdx := len(buf) - s - 1
	candidate := buf[candidateIdx]
	absIdx := barCount - s

	isSwingHigh := true
	isSwingLow := true
	for offset := 1; offset <= s; offset++ {
		left := buf[candidateIdx-offset]
		right := buf[candidateIdx+offset]
		if left.High.GreaterThanOrEqual(candidate.High) || right.High.GreaterThanOrEqual(candidate.High) {
			isSwingHigh = false
		}
		if left.Low.LessThanOrEqual(candidate.Low) || right.Low.LessThanOrEqual(candidate.Low) {
			isSwingLow = false
		}
	}

	if isSwingHigh {
		sp := SwingPoint{Price: candidate.High, Timestamp: candidate.Timestamp, AbsIdx: absIdx}
		if len(d.swingHighs) == 0 || d.swingHighs[len(d.swingHighs)-1].AbsIdx != absIdx {
			d.swingHighs = append(d.swingHighs, sp)
			newHighs = append(newHighs, sp)
			if len(d.swingHighs) > d.maxHistory {
				d.swingHighs = d.swingHighs[len(d.swingHighs)-d.maxHistory:]
			}
		}
	}

	if isSwingLow {
		sp := SwingPoint{Price: candidate.Low, Timestamp: candidate.Timestamp, AbsIdx: absIdx}
		if len(d.swingLows) == 0 || d.swingLows[len(d.swingLows)-1].AbsIdx != absIdx {
			d.swingLows = append(d.swingLows, sp)
			newLows = append(newLows, sp)
			if len(d.swingLows) > d.maxHistory {
				d.swingLows = d.swingLows[len(d.swingLows)-d.maxHistory:]
			}
		}
	}

	return newHighs, newLows
}
