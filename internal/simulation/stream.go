package simulation

import "math/rand/v2"

// Stream identifiers partition one seed into independent random streams so the
// simulators never share draws.
const (
	StreamMonteCarlo uint64 = iota + 1
	StreamGBM
	StreamOptimizer
)

// DefaultSeed is used when no seed is configured
const DefaultSeed uint64 = 42

// NewSource returns a request-scoped PCG source for (seed, stream). Sources are
// not safe for concurrent use; create one per goroutine.
func NewSource(seed, stream uint64) rand.Source {
	return rand.NewPCG(seed, stream)
}

// NewRand wraps NewSource in a *rand.Rand
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(NewSource(seed, stream))
}

// AssetStream derives the stream for one asset from a simulator's base stream
// so each asset draws independently of which other assets are allocated.
func AssetStream(base uint64, asset int) uint64 {
	return base<<32 | uint64(asset)
}
