package domain

import "math"

const (
	// DefaultMaxPoolWidth caps the number of dice enumerated by exact pool computations.
	DefaultMaxPoolWidth = 64
	// DefaultMaxOutcomes caps the support size of any intermediate distribution.
	DefaultMaxOutcomes = 1 << 16
	// DefaultMaxDepth caps the nesting depth of an expression evaluated exactly.
	DefaultMaxDepth = 64
	// DefaultMaxWork caps the estimated elementary steps of a single exact computation.
	DefaultMaxWork = 1 << 25
)

// Limits bounds the work performed by exact distribution computation.
// Zero fields fall back to the package defaults.
type Limits struct {
	MaxPoolWidth int `json:"max_pool_width" yaml:"max_pool_width"`
	MaxOutcomes  int `json:"max_outcomes" yaml:"max_outcomes"`
	MaxDepth     int `json:"max_depth" yaml:"max_depth"`
	MaxWork      int `json:"max_work" yaml:"max_work"`
}

// DefaultLimits returns the default ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxPoolWidth: DefaultMaxPoolWidth,
		MaxOutcomes:  DefaultMaxOutcomes,
		MaxDepth:     DefaultMaxDepth,
		MaxWork:      DefaultMaxWork,
	}
}

// Resolve fills zero fields with defaults.
func (l Limits) Resolve() Limits {
	if l.MaxPoolWidth <= 0 {
		l.MaxPoolWidth = DefaultMaxPoolWidth
	}
	if l.MaxOutcomes <= 0 {
		l.MaxOutcomes = DefaultMaxOutcomes
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxWork <= 0 {
		l.MaxWork = DefaultMaxWork
	}
	return l
}

// CheckPoolWidth fails when width dice would have to be enumerated.
func (l Limits) CheckPoolWidth(width int) error {
	l = l.Resolve()
	if width > l.MaxPoolWidth {
		return &LimitError{Resource: "pool width", Limit: l.MaxPoolWidth, Requested: width}
	}
	return nil
}

// CheckOutcomes fails when a distribution would hold more than MaxOutcomes outcomes.
func (l Limits) CheckOutcomes(n int) error {
	l = l.Resolve()
	if n > l.MaxOutcomes {
		return &LimitError{Resource: "outcomes", Limit: l.MaxOutcomes, Requested: n}
	}
	return nil
}

// CheckDepth fails when the expression nesting exceeds MaxDepth.
func (l Limits) CheckDepth(depth int) error {
	l = l.Resolve()
	if depth > l.MaxDepth {
		return &LimitError{Resource: "depth", Limit: l.MaxDepth, Requested: depth}
	}
	return nil
}

// CheckWork fails when a computation is estimated to take more than MaxWork steps.
func (l Limits) CheckWork(work float64) error {
	l = l.Resolve()
	if work > float64(l.MaxWork) {
		requested := math.MaxInt
		if work < math.MaxInt {
			requested = int(work)
		}
		return &LimitError{Resource: "work", Limit: l.MaxWork, Requested: requested}
	}
	return nil
}
