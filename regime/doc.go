// Package regime classifies the prevailing volatility and trend-strength
// conditions of a bar series and lets a strategy's signals be gated by the
// result. An ATRRegimeClassifier buckets volatility, an ADXClassifier
// buckets trend strength via Wilder's ADX, RegimeClassifier combines both
// into one of six composite regimes, and RegimeGatedStrategy wraps any
// core.Strategy so its signals are only forwarded while the regime is in an
// allowed set.
package regime
