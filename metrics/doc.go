// Package metrics computes post-loop performance metrics — PnL, CAGR,
// Sharpe/Sortino/Calmar, max drawdown, and FIFO round-trip trade
// statistics — from an engine's equity log and fill log. Every metric is
// computed once, after the bar loop finishes, never incrementally during
// it.
package metrics
