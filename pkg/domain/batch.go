package domain

import "math"

// Batch holds one outcome per simulated trial.
// Its length is fixed by the caller and equal across all nodes sampled within one call.
type Batch []int

// NewBatch allocates a zeroed batch of n trials.
func NewBatch(n int) Batch {
	return make(Batch, n)
}

// Fill returns a batch of n trials all equal to v.
func Fill(n, v int) Batch {
	b := make(Batch, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// Sum returns the total of all trials.
func (b Batch) Sum() int {
	total := 0
	for _, v := range b {
		total += v
	}
	return total
}

// Min returns the smallest trial outcome, or 0 for an empty batch.
func (b Batch) Min() int {
	if len(b) == 0 {
		return 0
	}
	m := b[0]
	for _, v := range b[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest trial outcome, or 0 for an empty batch.
func (b Batch) Max() int {
	if len(b) == 0 {
		return 0
	}
	m := b[0]
	for _, v := range b[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Mean returns the arithmetic mean of the trials.
func (b Batch) Mean() float64 {
	if len(b) == 0 {
		return 0
	}
	return float64(b.Sum()) / float64(len(b))
}

// StdDev returns the population standard deviation of the trials.
func (b Batch) StdDev() float64 {
	if len(b) == 0 {
		return 0
	}
	mean := b.Mean()
	acc := 0.0
	for _, v := range b {
		d := float64(v) - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(b)))
}

// Histogram converts the batch into an empirical distribution.
func (b Batch) Histogram() Distribution {
	weights := make(map[int]float64)
	for _, v := range b {
		weights[v]++
	}
	return FromWeights(weights)
}
