package engine

import (
	"container/heap"
	"math"
	"sort"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
	"github.com/tthiemann260-coder/apex-backtest-sub000/execution"
	"github.com/tthiemann260-coder/apex-backtest-sub000/portfolio"

	"github.com/shopspring/decimal"
)

// barHeapItem is one pending bar from one symbol's source, tagged with a
// monotonic arrival counter so ties on (timestamp, symbol) — which should
// never happen for a well-formed feed, but can for same-symbol duplicate
// timestamps — resolve to first-submitted-first-served rather than an
// undefined heap comparison.
type barHeapItem struct {
	bar     core.Bar
	counter int64
}

type barHeap []barHeapItem

func (h barHeap) Len() int { return len(h) }
func (h barHeap) Less(i, j int) bool {
	if !h[i].bar.Timestamp.Equal(h[j].bar.Timestamp) {
		return h[i].bar.Timestamp.Before(h[j].bar.Timestamp)
	}
	if h[i].bar.Symbol != h[j].bar.Symbol {
		return h[i].bar.Symbol < h[j].bar.Symbol
	}
	return h[i].counter < h[j].counter
}
func (h barHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *barHeap) Push(x any)   { *h = append(*h, x.(barHeapItem)) }
func (h *barHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeBars drains every source in chronological order across symbols,
// breaking timestamp ties by symbol name and then by arrival order. The
// typed heap item keys on (timestamp, symbol, counter), so bars themselves
// never need to be comparable.
func MergeBars(sources map[string]BarSource) []core.Bar {
	h := &barHeap{}
	heap.Init(h)

	var counter int64
	symbols := make([]string, 0, len(sources))
	for symbol := range sources {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		if bar, ok := sources[symbol].Next(); ok {
			heap.Push(h, barHeapItem{bar: bar, counter: counter})
			counter++
		}
	}

	var out []core.Bar
	for h.Len() > 0 {
		item := heap.Pop(h).(barHeapItem)
		out = append(out, item.bar)
		if next, ok := sources[item.bar.Symbol].Next(); ok {
			heap.Push(h, barHeapItem{bar: next, counter: counter})
			counter++
		}
	}
	return out
}

// MultiAssetResult mirrors Result but across every symbol driven through
// the run: a single shared Portfolio's logs, plus the last mark-to-market
// price seen for each symbol.
type MultiAssetResult struct {
	EquityLog   []core.EquityLogEntry
	FillLog     []core.Fill
	EventLog    []any
	FinalEquity decimal.Decimal
	TotalBars   int
	LastPrices  map[string]decimal.Decimal
}

// MultiAssetEngine drives several symbols' bars through one shared
// Portfolio, one Strategy and one execution.Handler per symbol. Bars
// interleave by MergeBars; equity is snapshotted once per distinct
// timestamp across the whole merged stream, not once per bar, so that
// several symbols sharing a timestamp contribute one equity point instead
// of one per symbol.
type MultiAssetEngine struct {
	Sources    map[string]BarSource
	Strategies map[string]core.Strategy
	Portfolio  *portfolio.Portfolio
	Executions map[string]*execution.Handler
	Risk       core.RiskManager
}

// NewMultiAsset builds a MultiAssetEngine. risk may be nil.
func NewMultiAsset(sources map[string]BarSource, strategies map[string]core.Strategy, port *portfolio.Portfolio, executions map[string]*execution.Handler, risk core.RiskManager) *MultiAssetEngine {
	return &MultiAssetEngine{
		Sources:    sources,
		Strategies: strategies,
		Portfolio:  port,
		Executions: executions,
		Risk:       risk,
	}
}

// Run drives every symbol's merged bar stream to exhaustion. Per bar: (1)
// update the last-known price for that symbol, (2) settle that symbol's
// own pending orders — a late bar for one symbol never triggers another
// symbol's fills, (3) check margin against every symbol's last-known price
// and force-liquidate anything under water, (4) route the bar to its
// matching strategy and translate any resulting signal through that
// symbol's execution handler, (5) snapshot equity exactly once per
// distinct timestamp, deferred until the timestamp changes (or the run
// ends), so bars sharing a timestamp across symbols collapse to one
// snapshot instead of one per symbol.
func (e *MultiAssetEngine) Run() MultiAssetResult {
	recorder := newEventRecorder()
	bars := MergeBars(e.Sources)
	lastPrices := make(map[string]decimal.Decimal, len(e.Sources))

	var prevTs time.Time
	havePrev := false

	for _, bar := range bars {
		lastPrices[bar.Symbol] = bar.Close

		if exec, ok := e.Executions[bar.Symbol]; ok {
			for _, fill := range exec.Process(bar) {
				_ = recorder.record(fill)
				e.Portfolio.ProcessFill(fill)
			}
		}

		for _, symbol := range e.Portfolio.CheckMargin(lastPrices) {
			if fill, ok := e.Portfolio.ForceLiquidate(symbol, lastPrices[symbol], bar.Timestamp); ok {
				_ = recorder.record(fill)
			}
		}

		if strat, ok := e.Strategies[bar.Symbol]; ok {
			if sig, ok := strat.CalculateSignals(bar); ok {
				_ = recorder.record(sig)
				if order, ok := Translate(sig, bar, e.Portfolio, strat, e.Risk); ok {
					if exec, ok := e.Executions[bar.Symbol]; ok {
						_ = recorder.record(order)
						_ = exec.Submit(order)
					}
				}
			}
		}

		if havePrev && !bar.Timestamp.Equal(prevTs) {
			e.Portfolio.AppendSnapshot(prevTs, snapshotCopy(lastPrices))
		}
		prevTs = bar.Timestamp
		havePrev = true
		recorder.drain()
	}

	if havePrev {
		e.Portfolio.AppendSnapshot(prevTs, snapshotCopy(lastPrices))
	}

	return MultiAssetResult{
		EquityLog:   e.Portfolio.EquityLog(),
		FillLog:     e.Portfolio.FillLog(),
		EventLog:    recorder.events(),
		FinalEquity: e.Portfolio.LastEquity(),
		TotalBars:   len(bars),
		LastPrices:  lastPrices,
	}
}

func snapshotCopy(prices map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prices))
	for symbol, price := range prices {
		out[symbol] = price
	}
	return out
}

// PerSymbolEquity decomposes a shared equity log back into one curve per
// symbol: at each snapshot, symbol's contribution is its mark-to-market
// price times whatever quantity the snapshot implies is unavailable from
// the log alone, so this reports the raw per-symbol price series actually
// recorded in each snapshot's Prices map instead — the closest thing the
// log supports without re-deriving position history.
func PerSymbolEquity(equityLog []core.EquityLogEntry) map[string][]core.EquityLogEntry {
	out := make(map[string][]core.EquityLogEntry)
	for _, entry := range equityLog {
		for symbol, price := range entry.Prices {
			out[symbol] = append(out[symbol], core.EquityLogEntry{
				Timestamp: entry.Timestamp,
				Equity:    price,
				Cash:      entry.Cash,
				Prices:    map[string]decimal.Decimal{symbol: price},
			})
		}
	}
	return out
}

// RollingCorrelation computes the Pearson correlation between two equity
// curves over a trailing window, sampled at every index where the window
// is full. Values round-trip through float64 — decimal.Decimal has no
// general (non-integer-exponent) Pow, and Newton's-method square roots add
// complexity a correlation coefficient's precision needs don't justify.
func RollingCorrelation(a, b []decimal.Decimal, window int) []decimal.Decimal {
	if window < 2 || len(a) != len(b) || len(a) < window {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(a)-window+1)
	for end := window; end <= len(a); end++ {
		out = append(out, pearson(a[end-window:end], b[end-window:end]))
	}
	return out
}

func pearson(x, y []decimal.Decimal) decimal.Decimal {
	n := len(x)
	if n == 0 {
		return decimal.Zero
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		xf, _ := x[i].Float64()
		yf, _ := y[i].Float64()
		sumX += xf
		sumY += yf
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		xf, _ := x[i].Float64()
		yf, _ := y[i].Float64()
		dx, dy := xf-meanX, yf-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(cov / math.Sqrt(varX*varY))
}
