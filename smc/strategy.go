package smc

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// SMCConfig holds SMCStrategy's tunables. NewSMCStrategy uses every field
// as given; zero-valued fields are not replaced by DefaultSMCConfig's
// values.
type SMCConfig struct {
	SwingStrength    int
	ATRPeriod        int
	ATRMultThreshold decimal.Decimal
	OBLookbackBars   int
	MaxActiveOBs     int
	OBMaxAgeBars     int
	MaxFVGs          int
	FVGMaxAgeBars    int
	FVGMinSizeATR    decimal.Decimal
	MitigationMode   MitigationMode
	WarmupBars       int
	MaxBufferSize    int
}

// DefaultSMCConfig returns the standard SMCStrategy tunables.
func DefaultSMCConfig() SMCConfig {
	return SMCConfig{
		SwingStrength:    2,
		ATRPeriod:        14,
		ATRMultThreshold: decimal.NewFromFloat(1.5),
		OBLookbackBars:   10,
		MaxActiveOBs:     5,
		OBMaxAgeBars:     100,
		MaxFVGs:          20,
		FVGMaxAgeBars:    100,
		FVGMinSizeATR:    decimal.NewFromFloat(0.5),
		MitigationMode:   MitigationWick,
		WarmupBars:       30,
		MaxBufferSize:    500,
	}
}

// SMCStrategy combines swing detection, BOS/CHOCH structure tracking, FVG
// lifecycle, and BOS-triggered Order Block detection into a single
// core.Strategy. It enters on Order Block + Fair Value Gap confluence in
// the direction of the prevailing trend, and exits on CHOCH against the
// open position or on a recent same-direction Order Block invalidation.
type SMCStrategy struct {
	symbol    string
	timeframe string
	cfg       SMCConfig

	bars       []core.Bar
	barCount   int
	currentATR decimal.Decimal

	swings    *SwingDetector
	structure *MarketStructureTracker
	fvgs      *FVGTracker
	obs       *OrderBlockDetector

	inPosition core.OrderSide
	flat       bool
}

// NewSMCStrategy builds an SMCStrategy for symbol/timeframe.
func NewSMCStrategy(symbol, timeframe string, cfg SMCConfig) (*SMCStrategy, error) {
	swings, err := NewSwingDetector(cfg.SwingStrength, 50)
	if err != nil {
		return nil, err
	}
	fvgs, err := NewFVGTracker(cfg.MaxFVGs, cfg.FVGMaxAgeBars, cfg.FVGMinSizeATR, cfg.MitigationMode)
	if err != nil {
		return nil, err
	}
	obs := NewOrderBlockDetector(cfg.ATRMultThreshold, cfg.OBLookbackBars, cfg.MaxActiveOBs, cfg.OBMaxAgeBars, false)

	return &SMCStrategy{
		symbol:    symbol,
		timeframe: timeframe,
		cfg:       cfg,
		swings:    swings,
		structure: NewMarketStructureTracker(50),
		fvgs:      fvgs,
		obs:       obs,
		flat:      true,
	}, nil
}

// Symbol implements core.Strategy.
func (s *SMCStrategy) Symbol() string { return s.symbol }

// CurrentATR implements core.Strategy.
func (s *SMCStrategy) CurrentATR() decimal.Decimal { return s.currentATR }

// Trend exposes the tracked market structure trend.
func (s *SMCStrategy) Trend() TrendState { return s.structure.Trend() }

func (s *SMCStrategy) updateBuffer(bar core.Bar) {
	s.bars = append(s.bars, bar)
	if len(s.bars) > s.cfg.MaxBufferSize {
		s.bars = s.bars[len(s.bars)-s.cfg.MaxBufferSize:]
	}
}

// CalculateSignals implements core.Strategy, running the full SMC pipeline
// for one bar: buffer update, ATR, warmup guard, swing/structure/FVG/OB
// detection, state updates, exit check (priority), then entry check.
func (s *SMCStrategy) CalculateSignals(bar core.Bar) (core.Signal, bool) {
	s.updateBuffer(bar)
	s.barCount++
	s.currentATR = simpleATR(s.bars, s.cfg.ATRPeriod)

	if s.barCount < s.cfg.WarmupBars {
		return core.Signal{}, false
	}

	newHighs, newLows := s.swings.DetectConfirmedSwings(s.bars, s.barCount)
	for _, sh := range newHighs {
		s.structure.OnNewSwingHigh(sh)
	}
	for _, sl := range newLows {
		s.structure.OnNewSwingLow(sl)
	}

	structureBreak := s.structure.OnBarClose(bar.Close, s.barCount, bar.Timestamp)

	if s.currentATR.GreaterThan(decimal.Zero) {
		s.fvgs.DetectAndRegister(s.bars, s.barCount, s.currentATR)
	}
	if structureBreak != nil && s.currentATR.GreaterThan(decimal.Zero) {
		s.obs.ScanForNewOB(s.bars, s.barCount, s.currentATR, structureBreak)
	}

	s.obs.UpdateOBStates(bar, s.barCount)
	s.fvgs.UpdateAllStates(bar, s.barCount)

	if sig, ok := s.checkExit(bar, structureBreak); ok {
		return sig, true
	}
	return s.checkEntry(bar)
}

func (s *SMCStrategy) checkExit(bar core.Bar, structureBreak *StructureBreak) (core.Signal, bool) {
	if s.flat {
		return core.Signal{}, false
	}

	shouldExit := false
	if structureBreak != nil && structureBreak.Type == BreakCHOCH {
		if s.inPosition == core.SideBuy && structureBreak.Direction == "bearish" {
			shouldExit = true
		} else if s.inPosition == core.SideSell && structureBreak.Direction == "bullish" {
			shouldExit = true
		}
	}

	if !shouldExit {
		wantDirection := "bullish"
		if s.inPosition == core.SideSell {
			wantDirection = "bearish"
		}
		for _, ob := range s.obs.AllOBs() {
			if ob.Direction == wantDirection && ob.State == OBInvalidated && ob.FormedBarIdx >= s.barCount-5 {
				shouldExit = true
				break
			}
		}
	}

	if !shouldExit {
		return core.Signal{}, false
	}
	s.flat = true
	return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: core.SignalExit, Strength: decimal.NewFromFloat(0.8)}, true
}

func (s *SMCStrategy) checkEntry(bar core.Bar) (core.Signal, bool) {
	if !s.flat {
		return core.Signal{}, false
	}

	trend := s.structure.Trend()
	if trend == TrendUp {
		for _, ob := range s.obs.ActiveOBs() {
			if ob.Direction != "bullish" {
				continue
			}
			if bar.Low.GreaterThan(ob.High) || bar.Close.LessThan(ob.Low) {
				continue
			}
			for _, fvg := range s.fvgs.GetActiveFVGs("bullish") {
				if zonesOverlap(ob.Low, ob.High, fvg.Bottom, fvg.Top) {
					s.flat, s.inPosition = false, core.SideBuy
					return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: core.SignalLong, Strength: decimal.NewFromFloat(0.9)}, true
				}
			}
		}
	}

	if trend == TrendDown {
		for _, ob := range s.obs.ActiveOBs() {
			if ob.Direction != "bearish" {
				continue
			}
			if bar.High.LessThan(ob.Low) || bar.Close.GreaterThan(ob.High) {
				continue
			}
			for _, fvg := range s.fvgs.GetActiveFVGs("bearish") {
				if zonesOverlap(ob.Low, ob.High, fvg.Bottom, fvg.Top) {
					s.flat, s.inPosition = false, core.SideSell
					return core.Signal{Symbol: bar.Symbol, Timestamp: bar.Timestamp, Variant: core.SignalShort, Strength: decimal.NewFromFloat(0.9)}, true
				}
			}
		}
	}

	return core.Signal{}, false
}

func zonesOverlap(aLow, aHigh, bLow, bHigh decimal.Decimal) bool {
	return aLow.LessThanOrEqual(bHigh) && bLow.LessThanOrEqual(aHigh)
}
