package cache_test

import (
	"context"
	"testing"

	"github.com/tthiemann260-coder/apex-backtest-sub000/cache"
)

func TestKeyStringIsStableUnderParamOrder(t *testing.T) {
	k1 := cache.Key{DatasetHash: "abc", Strategy: "breakout", Seed: 42, Params: map[string]float64{"a": 1, "b": 2}}
	k2 := cache.Key{DatasetHash: "abc", Strategy: "breakout", Seed: 42, Params: map[string]float64{"b": 2, "a": 1}}
	if k1.String() != k2.String() {
		t.Fatalf("Key.String() depends on map iteration order: %q != %q", k1.String(), k2.String())
	}
}

func TestKeyStringDiffersOnSeed(t *testing.T) {
	k1 := cache.Key{DatasetHash: "abc", Strategy: "breakout", Seed: 1}
	k2 := cache.Key{DatasetHash: "abc", Strategy: "breakout", Seed: 2}
	if k1.String() == k2.String() {
		t.Fatalf("expected different seeds to produce different keys")
	}
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	var c cache.NullCache
	var dest map[string]float64
	if err := c.Get(context.Background(), cache.Key{}, &dest); err != cache.ErrMiss {
		t.Fatalf("Get = %v, want ErrMiss", err)
	}
	if err := c.Set(context.Background(), cache.Key{}, dest); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
