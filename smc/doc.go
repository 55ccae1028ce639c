// Package smc implements the Smart Money Concepts / ICT state machines:
// fractal swing detection, BOS/CHOCH market structure tracking, Fair Value
// Gap lifecycle, BOS-triggered Order Block detection, liquidity sweep
// (stop-hunt) detection, inducement (IDM) tracking, ICT kill-zone session
// classification, and premium/discount OTE zone math. SMCStrategy combines
// the first four into a single core.Strategy; ICTStrategy layers the
// ICT-specific filters on top for a confluence-gated entry model.
//
// Every detector here is a pure state machine driven one bar at a time by
// its owning strategy — none of them look ahead: a swing is only reported
// once `strength` bars have closed to its right, and a structure break is
// only ever checked against the close of the bar that just arrived.
package smc
