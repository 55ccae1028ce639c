package optimization

import "math"

// RobustnessReport combines walk-forward efficiency, Monte Carlo
// percentiles, and parameter-sensitivity stability into a single
// pass/fail assessment with a 0-100 composite score.
type RobustnessReport struct {
	WFOEfficiency    float64
	WFOMeanOOSSharpe float64
	WFONWindows      int
	WFOPass          bool

	MCP5Equity         float64
	MCP95Equity        float64
	MCEquityPercentile float64
	MCNTrades          int
	MCPass             bool

	SensitivityOverall float64
	SensitivityParamCV map[string]float64
	SensitivityPass    bool

	OverallPass bool
	Score       float64
}

// RobustnessThresholds holds the three pass/fail cutoffs. An entirely
// zero-valued RobustnessThresholds falls back to the defaults
// (0.5 / 0.0 / 0.5); a partly set one is used as given, zeros included.
type RobustnessThresholds struct {
	WFOEfficiency float64
	MCEquityPct   float64
	Sensitivity   float64
}

// DefaultRobustnessThresholds returns the standard pass/fail cutoffs.
func DefaultRobustnessThresholds() RobustnessThresholds {
	return RobustnessThresholds{WFOEfficiency: 0.5, MCEquityPct: 0.0, Sensitivity: 0.5}
}

// ComputeRobustness folds WFOResult, MCResult, and SensitivityResult into
// one pass/fail report. mcThreshold (RobustnessThresholds.MCEquityPct) is
// a fractional margin over initialEquity the MC p5 equity must clear —
// 0.0 means "at least breakeven at the 5th percentile."
func ComputeRobustness(wfo WFOResult, mc MCResult, sens SensitivityResult, initialEquity float64, th RobustnessThresholds) RobustnessReport {
	if th == (RobustnessThresholds{}) {
		th = DefaultRobustnessThresholds()
	}

	wfoPass := wfo.MeanEfficiency >= th.WFOEfficiency && len(wfo.Windows) > 0

	mcPass := false
	if mc.NTrades >= 2 {
		mcPass = mc.P5Equity >= initialEquity*(1+th.MCEquityPct)
	}

	sensPass := sens.OverallStability >= th.Sensitivity

	overall := wfoPass && mcPass && sensPass

	wfoScore := math.Min(33.0, math.Max(0.0, wfo.MeanEfficiency*33.0))
	mcScore := math.Min(33.0, math.Max(0.0, mc.EquityPercentile/100.0*33.0))
	sensScore := math.Min(34.0, math.Max(0.0, sens.OverallStability*34.0))
	score := wfoScore + mcScore + sensScore

	return RobustnessReport{
		WFOEfficiency:    wfo.MeanEfficiency,
		WFOMeanOOSSharpe: wfo.MeanOOSSharpe,
		WFONWindows:      len(wfo.Windows),
		WFOPass:          wfoPass,

		MCP5Equity:         mc.P5Equity,
		MCP95Equity:        mc.P95Equity,
		MCEquityPercentile: mc.EquityPercentile,
		MCNTrades:          mc.NTrades,
		MCPass:             mcPass,

		SensitivityOverall: sens.OverallStability,
		SensitivityParamCV: sens.ParamCV,
		SensitivityPass:    sensPass,

		OverallPass: overall,
		Score:       score,
	}
}
