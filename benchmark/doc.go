// Package benchmark computes a buy-and-hold equity curve for the same
// instrument a strategy traded, then compares the two equity curves via
// Alpha, Beta, Information Ratio, and correlation. Every statistic here is
// float64 from the start — this is a relative-performance comparison, not
// a ledger figure.
package benchmark
