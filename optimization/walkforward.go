package optimization

import (
	"context"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/engine"
	"github.com/tthiemann260-coder/apex-backtest-sub000/metrics"

	"golang.org/x/sync/errgroup"
)

// Window holds the in-sample/out-of-sample results for one walk-forward
// slide.
type Window struct {
	Index        int
	TrainBars    int
	TestBars     int
	ISSharpe     float64
	OOSSharpe    float64
	ISReturnPct  float64
	OOSReturnPct float64
	// Efficiency is OOSSharpe / ISSharpe, clipped to [-5, 5]. 0 when
	// ISSharpe is too close to zero to divide by meaningfully.
	Efficiency float64
}

// WFOResult aggregates every window produced by RunWalkForward.
type WFOResult struct {
	Windows        []Window
	MeanOOSSharpe  float64
	MeanEfficiency float64
	TotalOOSBars   int
}

// RunWalkForward slides a (train, test) window of fixed bar counts across
// bars, stepping by stepBars (defaulting to testBars when <= 0). Each
// window gets a fresh strategy instance via newStrategy for its
// in-sample run and another fresh instance for its out-of-sample run —
// zero state is carried across windows, or between a window's IS and OOS
// halves. Returns an InvalidInputKind error if trainBars or testBars is
// non-positive, or if bars is too short to form a single window.
func RunWalkForward(bars []core.Bar, cfg RunConfig, newStrategy func() (core.Strategy, error), trainBars, testBars, stepBars int) (WFOResult, error) {
	if trainBars <= 0 || testBars <= 0 {
		return WFOResult{}, core.NewError(core.InvalidInputKind, "walk-forward: trainBars and testBars must be positive")
	}
	if stepBars <= 0 {
		stepBars = testBars
	}
	if len(bars) < trainBars+testBars {
		return WFOResult{}, core.NewError(core.InvalidInputKind, "walk-forward: bars too short for a single train+test window")
	}

	var starts []int
	for start := 0; start+trainBars+testBars <= len(bars); start += stepBars {
		starts = append(starts, start)
	}
	windows := make([]Window, len(starts))

	// Each window is a fully independent train+test run against its own
	// fresh strategy pair, so windows execute concurrently — the harness
	// parallelism a walk-forward sweep is explicitly allowed to use. Every
	// goroutine writes only windows[idx], so no window result can race
	// with another.
	g, _ := errgroup.WithContext(context.Background())
	for idx, start := range starts {
		idx, start := idx, start
		g.Go(func() error {
			trainSlice := bars[start : start+trainBars]
			testStart := start + trainBars
			testSlice := bars[testStart : testStart+testBars]

			trainStrat, err := newStrategy()
			if err != nil {
				return err
			}
			testStrat, err := newStrategy()
			if err != nil {
				return err
			}

			isRes := runSlice(trainSlice, cfg, trainStrat)
			oosRes := runSlice(testSlice, cfg, testStrat)

			isSharpe, isRet := sharpeAndReturn(isRes, cfg.Timeframe)
			oosSharpe, oosRet := sharpeAndReturn(oosRes, cfg.Timeframe)

			efficiency := 0.0
			if absf(isSharpe) > 1e-10 {
				efficiency = clip(oosSharpe/isSharpe, -5, 5)
			}

			windows[idx] = Window{
				Index:        idx,
				TrainBars:    len(trainSlice),
				TestBars:     len(testSlice),
				ISSharpe:     isSharpe,
				OOSSharpe:    oosSharpe,
				ISReturnPct:  isRet,
				OOSReturnPct: oosRet,
				Efficiency:   efficiency,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WFOResult{}, err
	}

	result := WFOResult{Windows: windows}
	if len(windows) > 0 {
		var sumOOS, sumEff float64
		for _, w := range windows {
			sumOOS += w.OOSSharpe
			sumEff += w.Efficiency
			result.TotalOOSBars += w.TestBars
		}
		result.MeanOOSSharpe = sumOOS / float64(len(windows))
		result.MeanEfficiency = sumEff / float64(len(windows))
	}
	return result, nil
}

// sharpeAndReturn computes (Sharpe, TotalReturnPct) as float64, treating a
// MetricsComputationKind failure (too few equity points) as (0, 0) rather
// than propagating the error — a window too short to produce a return
// series is informationally a flat window, not a harness failure.
func sharpeAndReturn(res engine.Result, timeframe string) (float64, float64) {
	m, err := metrics.Compute(res.EquityLog, res.FillLog, timeframe, nil)
	if err != nil {
		return 0, 0
	}
	sharpe, _ := m.SharpeRatio.Float64()
	ret, _ := m.TotalReturnPct.Float64()
	return sharpe, ret
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
