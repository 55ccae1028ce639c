package optimization

import (
	"context"
	"math/rand"
	"sort"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MCPermutation is one shuffled-trade-order simulation outcome.
type MCPermutation struct {
	FinalEquity    float64
	MaxDrawdownPct float64
}

// MCResult aggregates a Monte Carlo trade-shuffle run.
type MCResult struct {
	NPermutations       int
	NTrades             int
	OriginalFinalEquity float64
	OriginalMaxDDPct    float64
	P5Equity            float64
	P50Equity           float64
	P95Equity           float64
	P5MaxDD             float64
	P50MaxDD            float64
	P95MaxDD            float64
	// EquityPercentile is where the original (unshuffled) final equity
	// falls within the permutation distribution, in [0, 100].
	EquityPercentile float64
	Permutations     []MCPermutation
}

// pairFillsToPnLs extracts one PnL per round-trip from fillLog using a
// single running open-fill slot, not a FIFO stack — adjacent opposite-side
// fills pair off, same-side fills replace the open slot. Monte Carlo only
// needs a directionally correct trade-PnL sequence to shuffle, not the
// richer per-symbol FIFO accounting metrics.Compute already does.
func pairFillsToPnLs(fillLog []core.Fill) []decimal.Decimal {
	var pnls []decimal.Decimal
	var openFill *core.Fill

	for i := range fillLog {
		fill := fillLog[i]
		if openFill == nil {
			openFill = &fillLog[i]
			continue
		}
		if fill.Side != openFill.Side {
			var pnl decimal.Decimal
			if openFill.Side == core.SideBuy {
				pnl = fill.FillPrice.Sub(openFill.FillPrice).Mul(openFill.Quantity)
			} else {
				pnl = openFill.FillPrice.Sub(fill.FillPrice).Mul(openFill.Quantity)
			}
			pnl = pnl.Sub(openFill.TotalFriction()).Sub(fill.TotalFriction())
			pnls = append(pnls, pnl)
			openFill = nil
		} else {
			openFill = &fillLog[i]
		}
	}
	return pnls
}

// simulateEquityCurve replays pnls in order against initialEquity and
// returns (finalEquity, maxDrawdownPct).
func simulateEquityCurve(pnls []float64, initialEquity float64) (float64, float64) {
	equity := initialEquity
	peak := equity
	maxDD := 0.0

	for _, pnl := range pnls {
		equity += pnl
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak * 100.0
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return equity, maxDD
}

// RunMonteCarlo shuffles the per-trade PnL sequence extracted from
// fillLog (never bar prices) nPermutations times, reporting 5/50/95
// percentiles of final equity and max drawdown alongside where the real,
// unshuffled sequence falls in that distribution. A seed of 0 still
// seeds deterministically (via rand.NewSource) — callers that want a
// different draw each run should pass a time-derived seed themselves, the
// module never reaches for wall-clock time internally.
func RunMonteCarlo(fillLog []core.Fill, initialEquity decimal.Decimal, nPermutations int, seed int64) MCResult {
	pnlsDecimal := pairFillsToPnLs(fillLog)
	initEqFloat, _ := initialEquity.Float64()

	pnlsFloat := make([]float64, len(pnlsDecimal))
	for i, p := range pnlsDecimal {
		pnlsFloat[i], _ = p.Float64()
	}

	nTrades := len(pnlsFloat)
	origFinal, origDD := simulateEquityCurve(pnlsFloat, initEqFloat)

	if nTrades < 2 {
		return MCResult{
			NTrades:             nTrades,
			OriginalFinalEquity: origFinal,
			OriginalMaxDDPct:    origDD,
			P5Equity:            origFinal,
			P50Equity:           origFinal,
			P95Equity:           origFinal,
		}
	}

	// Every permutation gets its own RNG seeded from (seed, index), so the
	// batch can run concurrently — the harness-level parallelism a Monte
	// Carlo sweep is explicitly allowed to use — without the result
	// depending on goroutine scheduling order. A shared *rand.Rand drawn
	// from sequentially would make the outcome depend on which goroutine
	// reaches Shuffle first.
	permutations := make([]MCPermutation, nPermutations)
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < nPermutations; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed*1000003 + int64(i)))
			shuffled := make([]float64, nTrades)
			copy(shuffled, pnlsFloat)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			finalEq, maxDD := simulateEquityCurve(shuffled, initEqFloat)
			permutations[i] = MCPermutation{FinalEquity: finalEq, MaxDrawdownPct: maxDD}
			return nil
		})
	}
	_ = g.Wait()

	equities := make([]float64, nPermutations)
	drawdowns := make([]float64, nPermutations)
	for i, p := range permutations {
		equities[i] = p.FinalEquity
		drawdowns[i] = p.MaxDrawdownPct
	}
	sort.Float64s(equities)
	sort.Float64s(drawdowns)

	eqRank := 0
	for _, e := range equities {
		if e <= origFinal {
			eqRank++
		}
	}
	equityPercentile := float64(eqRank) / float64(len(equities)) * 100.0

	return MCResult{
		NPermutations:       nPermutations,
		NTrades:             nTrades,
		OriginalFinalEquity: origFinal,
		OriginalMaxDDPct:    origDD,
		P5Equity:            percentile(equities, 5),
		P50Equity:           percentile(equities, 50),
		P95Equity:           percentile(equities, 95),
		P5MaxDD:             percentile(drawdowns, 5),
		P50MaxDD:            percentile(drawdowns, 50),
		P95MaxDD:            percentile(drawdowns, 95),
		EquityPercentile:    equityPercentile,
		Permutations:        permutations,
	}
}

// percentile returns the pct-th percentile of sorted data via nearest-rank
// indexing (int(len*pct/100) truncation).
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * pct / 100.0)
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
