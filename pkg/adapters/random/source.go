package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source is a deterministic PCG-backed generator. It is not safe for concurrent use;
// wrap it in a Shared when several callers draw from it.
type Source struct {
	rng  *rand.Rand
	seed int64
}

// New creates a source seeded with seed.
func New(seed int64) *Source {
	return &Source{
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRandom creates a source from a fresh crypto seed.
func NewRandom() (*Source, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// IntRange returns a uniform integer in [lo, hi]. It returns lo when hi <= lo.
func (s *Source) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Sample returns k distinct elements of values chosen uniformly without replacement.
// k is clamped to [0, len(values)]; values is left untouched.
func (s *Source) Sample(values []int, k int) []int {
	k = min(max(k, 0), len(values))
	pool := make([]int, len(values))
	copy(pool, values)
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
