package nn

import (
	"math/rand/v2"
)

// newRand returns a generator seeded from the runtime's entropy source.
func newRand() *rand.Rand {
	//nolint:gosec // parameter initialization is not security-critical
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	//nolint:gosec // parameter initialization is not security-critical
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// uniform returns a value drawn from U(lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// orRand returns rng, or a freshly seeded generator if rng is nil.
func orRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return newRand()
	}
	return rng
}
