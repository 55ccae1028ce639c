// Package cache provides an optional Redis-backed store for optimization
// results, keyed by a deterministic fingerprint of (dataset hash, strategy
// name, sorted parameter set, seed). Re-running the same robustness report
// against the same inputs is then a cache hit instead of a full walk-forward
// and Monte Carlo re-simulation.
package cache
