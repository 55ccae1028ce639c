package smc

import (
	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
)

// ICTConfig holds ICTStrategy's tunables.
type ICTConfig struct {
	SMCConfig
	SweepMinDepthATR     decimal.Decimal
	SweepCooldownBars    int
	IDMSecondaryStrength int
	RequireSweep         bool
	RequireIDM           bool
	RequireKillZone      bool
	RequireOTE           bool
	ActiveSessions       []SessionType
}

// DefaultICTConfig returns the standard ICT gate set: sweep
// required, kill-zone required, OTE required, IDM not required.
func DefaultICTConfig() ICTConfig {
	return ICTConfig{
		SMCConfig:            DefaultSMCConfig(),
		SweepMinDepthATR:     decimal.NewFromFloat(0.1),
		SweepCooldownBars:    10,
		IDMSecondaryStrength: 1,
		RequireSweep:         true,
		RequireIDM:           false,
		RequireKillZone:      true,
		RequireOTE:           true,
		ActiveSessions:       defaultActiveSessions,
	}
}

// ICTStrategy layers liquidity-sweep, inducement, kill-zone, and
// premium/discount OTE confluence filters on top of the same
// OB+FVG+structure core SMCStrategy uses. All four ICT filters gate entry
// only — exit logic (CHOCH / OB invalidation) is identical to SMCStrategy.
type ICTStrategy struct {
	symbol    string
	timeframe string
	cfg       ICTConfig

	bars       []core.Bar
	barCount   int
	currentATR decimal.Decimal

	swings    *SwingDetector
	structure *MarketStructureTracker
	fvgs      *FVGTracker
	obs       *OrderBlockDetector
	sweeps    *LiquiditySweepDetector
	idm       *InducementDetector
	killZone  *KillZoneFilter

	inPosition core.OrderSide
	flat       bool
}

// NewICTStrategy builds an ICTStrategy for symbol/timeframe.
func NewICTStrategy(symbol, timeframe string, cfg ICTConfig) (*ICTStrategy, error) {
	swings, err := NewSwingDetector(cfg.SwingStrength, 50)
	if err != nil {
		return nil, err
	}
	fvgs, err := NewFVGTracker(cfg.MaxFVGs, cfg.FVGMaxAgeBars, cfg.FVGMinSizeATR, cfg.MitigationMode)
	if err != nil {
		return nil, err
	}
	obs := NewOrderBlockDetector(cfg.ATRMultThreshold, cfg.OBLookbackBars, cfg.MaxActiveOBs, cfg.OBMaxAgeBars, false)
	idm, err := NewInducementDetector(cfg.IDMSecondaryStrength, 10)
	if err != nil {
		return nil, err
	}
	kz, err := NewKillZoneFilter(cfg.ActiveSessions)
	if err != nil {
		return nil, err
	}

	return &ICTStrategy{
		symbol:    symbol,
		timeframe: timeframe,
		cfg:       cfg,
		swings:    swings,
		structure: NewMarketStructureTracker(50),
		fvgs:      fvgs,
		obs:       obs,
		sweeps:    NewLiquiditySweepDetector(cfg.SweepMinDepthATR, cfg.SweepCooldownBars, 30),
		idm:       idm,
		killZone:  kz,
		flat:      true,
	}, nil
}

// Symbol implements core.Strategy.
func (s *ICTStrategy) Symbol() string { return s.symbol }

// CurrentATR implements core.Strategy.
func (s *ICTStrategy) CurrentATR() decimal.Decimal { return s.currentATR }

// Trend exposes the tracked market structure trend.
func (s *ICTStrategy) Trend() TrendState { return s.structure.Trend() }

func (s *ICTStrategy) updateBuffer(bar core.Bar) {
	s.bars = append(s.bars, bar)
	if len(s.bars) > s.cfg.MaxBufferSize {
		s.bars = s.bars[len(s.bars)-s.cfg.MaxBufferSize:]
	}
}

// CalculateSignals implements core.Strategy: the SMC pipeline plus
// liquidity-sweep detection and inducement tracking, then ICT-gated entry.
func (s *ICTStrategy) CalculateSignals(bar core.Bar) (core.Signal, bool) {
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
	if s.currentATR.GreaterThan(decimal.Zero) {
		s.sweeps.CheckForSweeps(bar, s.swings.SwingHighs(), s.swings.SwingLows(), s.currentATR, s.barCount)
	}

	s.idm.FeedBar(s.bars, s.barCount)
	if structureBreak != nil {
		s.idm.DetectInducement(s.swings.SwingHighs(), s.swings.SwingLows(), structureBreak, s.barCount)
	}
	s.idm.CheckIDMCleared(bar, s.barCount)

	s.obs.UpdateOBStates(bar, s.barCount)
	s.fvgs.UpdateAllStates(bar, s.barCount)

	if sig, ok := s.checkExit(bar, structureBreak); ok {
		return sig, true
	}
	return s.checkEntry(bar)
}

func (s *ICTStrategy) checkExit(bar core.Bar, structureBreak *StructureBreak) (core.Signal, bool) {
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

func (s *ICTStrategy) checkEntry(bar core.Bar) (core.Signal, bool) {
	if !s.flat {
		return core.Signal{}, false
	}
	if s.cfg.RequireKillZone && !s.killZone.IsKillZone(bar.Timestamp) {
		return core.Signal{}, false
	}

	trend := s.structure.Trend()
	highs, lows := s.swings.SwingHighs(), s.swings.SwingLows()

	if trend == TrendUp {
		if sig, ok := s.checkLongEntry(bar, highs, lows); ok {
			return sig, true
		}
	}
	if trend == TrendDown {
		if sig, ok := s.checkShortEntry(bar, highs, lows); ok {
			return sig, true
		}
	}
	return core.Signal{}, false
}

func (s *ICTStrategy) checkLongEntry(bar core.Bar, highs, lows []SwingPoint) (core.Signal, bool) {
	if s.cfg.RequireOTE && len(highs) > 0 && len(lows) > 0 {
		zone := ComputePremiumDiscount(highs[len(highs)-1].Price, lows[len(lows)-1].Price)
		if ok, _ := InOTEZone(bar.Close, zone, "long"); !ok {
			return core.Signal{}, false
		}
	}
	if s.cfg.RequireSweep && s.sweeps.LastBullishSweep() == nil {
		return core.Signal{}, false
	}
	if s.cfg.RequireIDM && !s.idm.HasClearedIDM("bullish") {
		return core.Signal{}, false
	}

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
	return core.Signal{}, false
}

func (s *ICTStrategy) checkShortEntry(bar core.Bar, highs, lows []SwingPoint) (core.Signal, bool) {
	if s.cfg.RequireOTE && len(highs) > 0 && len(lows) > 0 {
		zone := ComputePremiumDiscount(highs[len(highs)-1].Price, lows[len(lows)-1].Price)
		if ok, _ := InOTEZone(bar.Close, zone, "short"); !ok {
			return core.Signal{}, false
		}
	}
	if s.cfg.RequireSweep && s.sweeps.LastBearishSweep() == nil {
		return core.Signal{}, false
	}
	if s.cfg.RequireIDM && !s.idm.HasClearedIDM("bearish") {
		return core.Signal{}, false
	}

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
	return core.Signal{}, false
}
