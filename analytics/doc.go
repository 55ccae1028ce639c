// Package analytics provides pure post-processing views over an engine
// Result's equity log and fill log: monthly return breakdowns, rolling
// Sharpe/drawdown windows, trade breakdown by hour/weekday/session,
// per-trade MAE/MFE excursion, and a commission-sensitivity sweep that
// re-runs the full engine at several friction multipliers. None of it
// feeds back into the bar loop — every function here runs after Run has
// already produced its logs.
package analytics
