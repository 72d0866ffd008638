// Package random provides the random sources consumed by dice sampling.
//
// Source is a seeded, deterministic generator: two sources built from the same seed
// produce identical batches for the same expression and trial count. Shared wraps any
// domain.Source behind a mutex so that a single process-wide generator can be swapped at
// runtime (for example, to replay a seed in tests) without rebuilding expression trees.
package random
