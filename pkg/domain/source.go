package domain

// Source produces the randomness consumed by sampling.
// Nodes never own a Source; it is passed in on every Generate call.
type Source interface {
	// IntRange returns a uniform integer in [lo, hi].
	IntRange(lo, hi int) int
	// Sample returns k distinct elements of values (without replacement).
	Sample(values []int, k int) []int
}
