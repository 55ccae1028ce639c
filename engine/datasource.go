// Package engine wires a BarSource, a Strategy, a Portfolio, and an
// execution Handler into the event-dispatch loop. The engine carries no
// trading logic of its own — every decision is made by the strategy, every
// fill by the execution handler, every accounting entry by the portfolio.
package engine

import "github.com/tthiemann260-coder/apex-backtest-sub000/core"

// BarSource yields bars in strictly non-decreasing timestamp order for one
// symbol. Next returns ok == false once exhausted; it is never called
// again afterward.
type BarSource interface {
	Next() (core.Bar, bool)
}

// SliceSource is a BarSource backed by an in-memory slice, used by tests
// and by any caller that has already materialized its bars.
type SliceSource struct {
	bars []core.Bar
	pos  int
}

// NewSliceSource builds a BarSource over bars, in the order given.
func NewSliceSource(bars []core.Bar) *SliceSource {
	return &SliceSource{bars: bars}
}

// Next returns the next bar in sequence.
func (s *SliceSource) Next() (core.Bar, bool) {
	if s.pos >= len(s.bars) {
		return core.Bar{}, false
	}
	bar := s.bars[s.pos]
	s.pos++
	return bar, true
}
