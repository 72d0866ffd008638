package expr

import (
	"github.com/aretw0/dicetree/pkg/domain"
)

// RollObserver receives the result of a scalar roll.
type RollObserver func(value int)

// GenerateObserver receives every generated batch.
type GenerateObserver func(batch domain.Batch)

// Observed forwards every call to an inner node and reports what it produced.
// Bounds, distribution and description are those of the inner node.
type Observed struct {
	inner      Node
	onRoll     RollObserver
	onGenerate GenerateObserver
}

// WithRollObserver reports the result of every Roll of node to fn.
func WithRollObserver(node Node, fn RollObserver) *Observed {
	return &Observed{inner: node, onRoll: fn}
}

// WithGenerateObserver reports every batch generated by node to fn.
func WithGenerateObserver(node Node, fn GenerateObserver) *Observed {
	return &Observed{inner: node, onGenerate: fn}
}

// Inner returns the wrapped node.
func (o *Observed) Inner() Node { return o.inner }

func (o *Observed) Kind() Kind { return KindObserved }

func (o *Observed) Generate(src domain.Source, n int) (domain.Batch, error) {
	batch, err := o.inner.Generate(src, n)
	if err != nil {
		return nil, err
	}
	if o.onGenerate != nil {
		// parents fold into the returned batch, so the observer gets its own copy
		snapshot := make(domain.Batch, len(batch))
		copy(snapshot, batch)
		o.onGenerate(snapshot)
	}
	return batch, nil
}

func (o *Observed) roll(src domain.Source) (int, error) {
	if o.onGenerate != nil {
		batch, err := o.Generate(src, 1)
		if err != nil {
			return 0, err
		}
		return batch.Sum(), nil
	}
	value, err := Roll(src, o.inner)
	if err != nil {
		return 0, err
	}
	if o.onRoll != nil {
		o.onRoll(value)
	}
	return value, nil
}

func (o *Observed) Min() int { return o.inner.Min() }

func (o *Observed) Max() int { return o.inner.Max() }

func (o *Observed) Distribution(lim domain.Limits) (domain.Distribution, error) {
	return o.inner.Distribution(lim)
}

func (o *Observed) String() string { return o.inner.String() }

func (o *Observed) Children() []Node { return []Node{o.inner} }

func (o *Observed) isNode() {}
