package rng

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// New returns a deterministic generator for seed. Two generators built from
// the same seed yield the same stream.
func New(seed int64) *rand.Rand {
	// Non-cryptographic PRNG is intentional for deterministic simulation behavior.
	// #nosec G404
	return rand.New(NewSource(seed))
}

// NewSource exposes the underlying PCG so callers can snapshot its state
// with MarshalBinary.
func NewSource(seed int64) *rand.PCG {
	return rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b"))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
