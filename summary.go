package dicetree

import "github.com/aretw0/dicetree/pkg/domain"

// Summary describes a batch of simulated outcomes.
type Summary struct {
	Trials int     `json:"trials"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

// Summarize computes the descriptive statistics of b.
func Summarize(b domain.Batch) Summary {
	return Summary{
		Trials: len(b),
		Mean:   b.Mean(),
		StdDev: b.StdDev(),
		Min:    b.Min(),
		Max:    b.Max(),
	}
}

// Summarize is a convenience forwarding to the package function.
func (e *Engine) Summarize(b domain.Batch) Summary {
	return Summarize(b)
}
