package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Key fingerprints one optimization run: the content hash of the dataset it
// ran against, the strategy that produced it, its parameter set, and the
// random seed driving any Monte Carlo stage. Nothing else goes into the key:
// walk-forward window sizes, the Monte Carlo permutation count, and the run
// configuration (friction, margin, risk settings) are not part of it, so two
// runs that differ only in those share one Key.
type Key struct {
	DatasetHash string
	Strategy    string
	Params      map[string]float64
	Seed        int64
}

// String renders Key as a stable cache key: sorted parameter names prevent
// Go's randomized map iteration order from producing a different key for
// the same logical parameter set across runs.
func (k Key) String() string {
	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	fmt.Fprintf(h, "dataset=%s;strategy=%s;seed=%d", k.DatasetHash, k.Strategy, k.Seed)
	for _, name := range names {
		fmt.Fprintf(h, ";%s=%v", name, k.Params[name])
	}
	return "optres:" + hex.EncodeToString(h.Sum(nil))
}
