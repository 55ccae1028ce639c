// Package config loads the JSON run configuration a cmd/backtest
// invocation is driven by: friction/margin parameters, the optional risk
// pipeline's Kelly/heat/drawdown sub-configs, SMC/ICT tunables, the
// multi-strategy router's weight map, and the optional result-cache
// address. Decimal fields are parsed from their JSON text (a quoted string
// or a bare numeric literal), never through float64 — the same
// construct-from-string-only rule the core's event types carry applies at
// this boundary too.
package config
