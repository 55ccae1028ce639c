package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tthiemann260-coder/apex-backtest-sub000/core"
)

// Factory builds a fresh core.Strategy instance for symbol/timeframe from a
// loosely-typed params map. The registry stores factories rather than
// built instances: walk-forward windows, sensitivity sweeps, and Monte
// Carlo runs each need their own strategy instance with its own rolling
// buffer, not one shared across runs.
type Factory func(symbol, timeframe string, params map[string]any) (core.Strategy, error)

// Registry maps a strategy name to the Factory that builds it.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Registering a name twice is an error.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if factory == nil {
		return fmt.Errorf("strategy: cannot register nil factory for %q", name)
	}
	if name == "" {
		return fmt.Errorf("strategy: name cannot be empty")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy: %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Build looks up name and invokes its factory to produce a fresh
// core.Strategy for symbol/timeframe.
func (r *Registry) Build(name, symbol, timeframe string, params map[string]any) (core.Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("strategy: %q not registered", name)
	}
	return factory(symbol, timeframe, params)
}

// List returns every registered name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a Registry with breakout, reversal, and fvg pre-registered
// under their canonical names, each built from its DefaultXConfig with one
// int-valued params key overriding a field: "lookback" (breakout),
// "rsi_period" (reversal), "max_open_gaps" (fvg). Other keys are ignored.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register("breakout", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		cfg := DefaultBreakoutConfig()
		if v, ok := params["lookback"].(int); ok {
			cfg.Lookback = v
		}
		return NewBreakout(symbol, timeframe, cfg), nil
	})
	_ = r.Register("reversal", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		cfg := DefaultReversalConfig()
		if v, ok := params["rsi_period"].(int); ok {
			cfg.RSIPeriod = v
		}
		return NewReversal(symbol, timeframe, cfg), nil
	})
	_ = r.Register("fvg", func(symbol, timeframe string, params map[string]any) (core.Strategy, error) {
		cfg := DefaultFVGConfig()
		if v, ok := params["max_open_gaps"].(int); ok {
			cfg.MaxOpenGaps = v
		}
		return NewFVG(symbol, timeframe, cfg), nil
	})
	return r
}
