package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Distribution is the exact law of an expression's outcome.
// Probabilities are normalized so that they sum to 1; outcomes are kept in ascending order.
// A Distribution is immutable once built.
type Distribution struct {
	outcomes []int
	probs    []float64
}

// Entry is a single outcome of a distribution.
type Entry struct {
	Outcome     int     `json:"outcome" yaml:"outcome"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Point returns the distribution that always yields v.
func Point(v int) Distribution {
	return Distribution{outcomes: []int{v}, probs: []float64{1}}
}

// Uniform returns the distribution giving equal weight to every listed value.
// Repeated values accumulate weight.
func Uniform(values ...int) Distribution {
	acc := NewAccumulator()
	for _, v := range values {
		acc.Add(v, 1)
	}
	return acc.Distribution()
}

// FromWeights normalizes a set of relative weights into a distribution.
// Non-positive weights are discarded.
func FromWeights(weights map[int]float64) Distribution {
	total := 0.0
	outcomes := make([]int, 0, len(weights))
	for v, w := range weights {
		if w > 0 {
			outcomes = append(outcomes, v)
			total += w
		}
	}
	sort.Ints(outcomes)

	probs := make([]float64, len(outcomes))
	for i, v := range outcomes {
		probs[i] = weights[v] / total
	}
	return Distribution{outcomes: outcomes, probs: probs}
}

// Len returns the number of distinct outcomes.
func (d Distribution) Len() int { return len(d.outcomes) }

// Outcomes returns the support in ascending order.
func (d Distribution) Outcomes() []int {
	out := make([]int, len(d.outcomes))
	copy(out, d.outcomes)
	return out
}

// Entries returns the outcome/probability pairs in ascending outcome order.
func (d Distribution) Entries() []Entry {
	entries := make([]Entry, len(d.outcomes))
	for i, v := range d.outcomes {
		entries[i] = Entry{Outcome: v, Probability: d.probs[i]}
	}
	return entries
}

// Each calls fn for every outcome in ascending order.
func (d Distribution) Each(fn func(outcome int, p float64)) {
	for i, v := range d.outcomes {
		fn(v, d.probs[i])
	}
}

// Prob returns the probability of outcome v.
func (d Distribution) Prob(v int) float64 {
	i := sort.SearchInts(d.outcomes, v)
	if i < len(d.outcomes) && d.outcomes[i] == v {
		return d.probs[i]
	}
	return 0
}

// ProbWhere returns the probability that pred holds for the outcome.
func (d Distribution) ProbWhere(pred func(int) bool) float64 {
	p := 0.0
	for i, v := range d.outcomes {
		if pred(v) {
			p += d.probs[i]
		}
	}
	return p
}

// AtLeast returns P(X >= v).
func (d Distribution) AtLeast(v int) float64 {
	return d.ProbWhere(func(x int) bool { return x >= v })
}

// AtMost returns P(X <= v).
func (d Distribution) AtMost(v int) float64 {
	return d.ProbWhere(func(x int) bool { return x <= v })
}

// Total returns the sum of all probabilities (1 up to rounding for a non-empty distribution).
func (d Distribution) Total() float64 {
	total := 0.0
	for _, p := range d.probs {
		total += p
	}
	return total
}

// Min returns the smallest outcome in the support.
func (d Distribution) Min() int {
	if len(d.outcomes) == 0 {
		return 0
	}
	return d.outcomes[0]
}

// Max returns the largest outcome in the support.
func (d Distribution) Max() int {
	if len(d.outcomes) == 0 {
		return 0
	}
	return d.outcomes[len(d.outcomes)-1]
}

// Mean returns the expected value.
func (d Distribution) Mean() float64 {
	mean := 0.0
	for i, v := range d.outcomes {
		mean += float64(v) * d.probs[i]
	}
	return mean
}

// Variance returns the variance of the outcome.
func (d Distribution) Variance() float64 {
	mean := d.Mean()
	acc := 0.0
	for i, v := range d.outcomes {
		diff := float64(v) - mean
		acc += diff * diff * d.probs[i]
	}
	return acc
}

// StdDev returns the standard deviation of the outcome.
func (d Distribution) StdDev() float64 {
	return math.Sqrt(d.Variance())
}

// Map applies f to every outcome, aggregating probability where f collides.
func (d Distribution) Map(f func(int) int) Distribution {
	acc := NewAccumulator()
	for i, v := range d.outcomes {
		acc.Add(f(v), d.probs[i])
	}
	return acc.Distribution()
}

// Combine returns the law of f(X, Y) for independent X ~ d and Y ~ other.
// Outcomes mapped to the same value have their probabilities summed.
func (d Distribution) Combine(other Distribution, f func(a, b int) int) Distribution {
	acc := NewAccumulator()
	for i, a := range d.outcomes {
		for j, b := range other.outcomes {
			acc.Add(f(a, b), d.probs[i]*other.probs[j])
		}
	}
	return acc.Distribution()
}

// Convolve returns the law of X + Y for independent X ~ d and Y ~ other.
func (d Distribution) Convolve(other Distribution) Distribution {
	return d.Combine(other, func(a, b int) int { return a + b })
}

// Equal reports whether both distributions share the same support and their
// probabilities differ by at most tol.
func (d Distribution) Equal(other Distribution, tol float64) bool {
	if len(d.outcomes) != len(other.outcomes) {
		return false
	}
	for i, v := range d.outcomes {
		if other.outcomes[i] != v || math.Abs(d.probs[i]-other.probs[i]) > tol {
			return false
		}
	}
	return true
}

// String renders the distribution compactly, e.g. "{1:0.5 2:0.5}".
func (d Distribution) String() string {
	s := "{"
	for i, v := range d.outcomes {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%.6g", v, d.probs[i])
	}
	return s + "}"
}

// MarshalJSON encodes the distribution as an ordered list of entries.
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Entries())
}

// UnmarshalJSON decodes an ordered list of entries.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode distribution: %w", err)
	}
	acc := NewAccumulator()
	for _, e := range entries {
		acc.Add(e.Outcome, e.Probability)
	}
	*d = acc.Distribution()
	return nil
}

// Accumulator gathers weighted outcomes before they are normalized into a Distribution.
type Accumulator struct {
	weights map[int]float64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{weights: make(map[int]float64)}
}

// Add adds weight w to outcome v.
func (a *Accumulator) Add(v int, w float64) {
	if w == 0 {
		return
	}
	a.weights[v] += w
}

// AddShifted adds every outcome of d, shifted by offset and scaled by w.
func (a *Accumulator) AddShifted(d Distribution, offset int, w float64) {
	if w == 0 {
		return
	}
	for i, v := range d.outcomes {
		a.Add(v+offset, d.probs[i]*w)
	}
}

// Len returns the number of distinct outcomes gathered so far.
func (a *Accumulator) Len() int { return len(a.weights) }

// Distribution normalizes the gathered weights.
func (a *Accumulator) Distribution() Distribution {
	return FromWeights(a.weights)
}
