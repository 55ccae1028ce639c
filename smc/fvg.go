package smc

import (
	"fmt"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// FVGState is a Fair Value Gap's lifecycle state.
type FVGState string

const (
	FVGOpen      FVGState = "OPEN"
	FVGTouched   FVGState = "TOUCHED"
	FVGMitigated FVGState = "MITIGATED"
	FVGInverted  FVGState = "INVERTED"
	FVGExpired   FVGState = "EXPIRED"
)

// MitigationMode selects how a touched gap is declared mitigated.
type MitigationMode string

const (
	MitigationWick  MitigationMode = "wick"
	Mitigation50Pct MitigationMode = "50pct"
	MitigationClose MitigationMode = "close"
)

// FairValueGap is a mutable three-candle imbalance tracked through its full
// OPEN -> TOUCHED -> MITIGATED -> INVERTED lifecycle, with EXPIRED reachable
// from OPEN or TOUCHED via age or memory-limit eviction (a MITIGATED gap
// does not expire; it can only invert).
type FairValueGap struct {
	Direction    string // "bullish" or "bearish"
	Top          decimal.Decimal
	Bottom       decimal.Decimal
	Midpoint     decimal.Decimal
	FormedBarIdx int
	State        FVGState
}

// Size returns the gap's price span.
func (g *FairValueGap) Size() decimal.Decimal { return g.Top.Sub(g.Bottom) }

// FVGTracker detects and tracks Fair Value Gaps.
type FVGTracker struct {
	maxFVGs        int
	maxAgeBars     int
	minSizeATRMult decimal.Decimal
	mode           MitigationMode
	gaps           []*FairValueGap
}

// NewFVGTracker builds a tracker. mode must be one of the MitigationMode
// constants.
func NewFVGTracker(maxFVGs, maxAgeBars int, minSizeATRMult decimal.Decimal, mode MitigationMode) (*FVGTracker, error) {
	switch mode {
	case MitigationWick, Mitigation50Pct, MitigationClose:
	default:
		return nil, fmt.Errorf("smc: invalid mitigation mode %q", mode)
	}
	if maxFVGs <= 0 {
		maxFVGs = 20
	}
	if maxAgeBars <= 0 {
		maxAgeBars = 100
	}
	return &FVGTracker{
		maxFVGs:        maxFVGs,
		maxAgeBars:     maxAgeBars,
		minSizeATRMult: minSizeATRMult,
		mode:           mode,
	}, nil
}

// AllGaps returns every tracked gap, including terminal ones still in memory.
func (t *FVGTracker) AllGaps() []*FairValueGap {
	out := make([]*FairValueGap, len(t.gaps))
	copy(out, t.gaps)
	return out
}

// GetActiveFVGs returns gaps in OPEN or TOUCHED state, optionally filtered
// by direction ("bullish"/"bearish"); an empty direction returns both.
func (t *FVGTracker) GetActiveFVGs(direction string) []*FairValueGap {
	var out []*FairValueGap
	for _, g := range t.gaps {
		if g.State != FVGOpen && g.State != FVGTouched {
			continue
		}
		if direction != "" && g.Direction != direction {
			continue
		}
		out = append(out, g)
	}
	return out
}

// DetectAndRegister looks at the last three bars in buf for a new gap and
// registers it if its size clears minSizeATRMult * atr.
func (t *FVGTracker) DetectAndRegister(buf []core.Bar, barIdx int, atr decimal.Decimal) *FairValueGap {
	if len(buf) < 3 {
		return nil
	}
	bar1 := buf[len(buf)-3]
	bar3 := buf[len(buf)-1]
	minSize := atr.Mul(t.minSizeATRMult)

	var gap *FairValueGap
	if bar1.High.LessThan(bar3.Low) {
		size := bar3.Low.Sub(bar1.High)
		if size.GreaterThanOrEqual(minSize) {
			top, bottom := bar3.Low, bar1.High
			gap = &FairValueGap{
				Direction:    "bullish",
				Top:          top,
				Bottom:       bottom,
				Midpoint:     top.Add(bottom).Div(two),
				FormedBarIdx: barIdx,
				State:        FVGOpen,
			}
		}
	} else if bar1.Low.GreaterThan(bar3.High) {
		size := bar1.Low.Sub(bar3.High)
		if size.GreaterThanOrEqual(minSize) {
			top, bottom := bar1.Low, bar3.High
			gap = &FairValueGap{
				Direction:    "bearish",
				Top:          top,
				Bottom:       bottom,
				Midpoint:     top.Add(bottom).Div(two),
				FormedBarIdx: barIdx,
				State:        FVGOpen,
			}
		}
	}

	if gap != nil {
		t.gaps = append(t.gaps, gap)
		t.enforceMemoryLimit()
	}
	return gap
}

// UpdateAllStates transitions every tracked gap against the current bar.
func (t *FVGTracker) UpdateAllStates(bar core.Bar, barIdx int) {
	for _, g := range t.gaps {
		if g.State == FVGInverted || g.State == FVGExpired {
			continue
		}
		if g.State == FVGMitigated {
			t.checkInversion(g, bar)
			continue
		}

		age := barIdx - g.FormedBarIdx
		if age > t.maxAgeBars {
			g.State = FVGExpired
			continue
		}
		if barIdx <= g.FormedBarIdx {
			continue
		}
		t.transition(g, bar)
	}
}

func (t *FVGTracker) checkInversion(g *FairValueGap, bar core.Bar) {
	if g.Direction == "bullish" {
		if bar.Close.LessThan(g.Bottom) {
			g.State = FVGInverted
		}
	} else if bar.Close.GreaterThan(g.Top) {
		g.State = FVGInverted
	}
}

func (t *FVGTracker) transition(g *FairValueGap, bar core.Bar) {
	if g.Direction == "bullish" {
		t.transitionBullish(g, bar)
	} else {
		t.transitionBearish(g, bar)
	}
}

func (t *FVGTracker) transitionBullish(g *FairValueGap, bar core.Bar) {
	if g.State == FVGOpen {
		if bar.Low.LessThanOrEqual(g.Top) {
			g.State = FVGTouched
			t.checkMitigationBullish(g, bar)
		}
	} else if g.State == FVGTouched {
		t.checkMitigationBullish(g, bar)
	}
	if g.State == FVGMitigated && bar.Close.LessThan(g.Bottom) {
		g.State = FVGInverted
	}
}

func (t *FVGTracker) checkMitigationBullish(g *FairValueGap, bar core.Bar) {
	if g.State != FVGTouched {
		return
	}
	switch t.mode {
	case MitigationWick:
		if bar.Low.LessThanOrEqual(g.Bottom) {
			g.State = FVGMitigated
		}
	case Mitigation50Pct:
		if bar.Low.LessThanOrEqual(g.Midpoint) {
			g.State = FVGMitigated
		}
	case MitigationClose:
		if bar.Close.LessThan(g.Bottom) {
			g.State = FVGMitigated
		}
	}
}

func (t *FVGTracker) transitionBearish(g *FairValueGap, bar core.Bar) {
	if g.State == FVGOpen {
		if bar.High.GreaterThanOrEqual(g.Bottom) {
			g.State = FVGTouched
			t.checkMitigationBearish(g, bar)
		}
	} else if g.State == FVGTouched {
		t.checkMitigationBearish(g, bar)
	}
	if g.State == FVGMitigated && bar.Close.GreaterThan(g.Top) {
		g.State = FVGInverted
	}
}

func (t *FVGTracker) checkMitigationBearish(g *FairValueGap, bar core.Bar) {
	if g.State != FVGTouched {
		return
	}
	switch t.mode {
	case MitigationWick:
		if bar.High.GreaterThanOrEqual(g.Top) {
			g.State = FVGMitigated
		}
	case Mitigation50Pct:
		if bar.High.GreaterThanOrEqual(g.Midpoint) {
			g.State = FVGMitigated
		}
	case MitigationClose:
		if bar.Close.GreaterThan(g.Top) {
			g.State = FVGMitigated
		}
	}
}

// enforceMemoryLimit expires the oldest OPEN (then TOUCHED) gap while the
// number of active gaps exceeds maxFVGs, then, if the total number of
// tracked gaps (terminal ones included) still exceeds maxFVGs, drops the
// EXPIRED and INVERTED gaps.
func (t *FVGTracker) enforceMemoryLimit() {
	activeCount := func() int {
		n := 0
		for _, g := range t.gaps {
			if g.State == FVGOpen || g.State == FVGTouched {
				n++
			}
		}
		return n
	}

	for activeCount() > t.maxFVGs {
		expired := false
		for _, g := range t.gaps {
			if g.State == FVGOpen {
				g.State = FVGExpired
				expired = true
				break
			}
		}
		if !expired {
			for _, g := range t.gaps {
				if g.State == FVGTouched {
					g.State = FVGExpired
					expired = true
					break
				}
			}
		}
		if !expired {
			break
		}
	}

	if len(t.gaps) <= t.maxFVGs {
		return
	}
	kept := t.gaps[:0:0]
	for _, g := range t.gaps {
		if g.State != FVGExpired && g.State != FVGInverted {
			kept = append(kept, g)
		}
	}
	t.gaps = kept
}

var two = decimal.NewFromInt(2)
