// Package optimization re-invokes the single-asset engine under controlled
// perturbations of its inputs: rolling walk-forward validation over
// train/test bar windows, per-parameter sensitivity sweeps, Monte Carlo
// trade-sequence shuffling, and a composite robustness report over all
// three. Every run here constructs a fresh strategy, portfolio, and
// execution handler — no state survives across windows, permutations, or
// perturbations, matching the single-use-per-run contract the engine
// package already documents.
package optimization
