package expr

import (
	"fmt"

	"github.com/aretw0/dicetree/pkg/domain"
)

// DefaultExplodeDepth is the explosion budget used when none is specified.
const DefaultExplodeDepth = 100

// Explode adds another roll of dice whenever the latest roll satisfies the relation against
// a fresh compare draw, for at most depth additional rolls per trial.
type Explode struct {
	rel     domain.Relation
	dice    Node
	compare Node
	depth   int
}

// NewExplode builds an explode node. A zero depth never explodes.
func NewExplode(rel domain.Relation, dice, compare Node, depth int) (*Explode, error) {
	if dice == nil {
		return nil, &domain.TypeError{Where: "explode dice", Value: dice}
	}
	if compare == nil {
		return nil, &domain.TypeError{Where: "explode compare", Value: compare}
	}
	if err := checkLimit(depth); err != nil {
		return nil, err
	}
	return &Explode{rel: rel, dice: dice, compare: compare, depth: depth}, nil
}

// Relation returns the explosion predicate.
func (e *Explode) Relation() domain.Relation { return e.rel }

// Dice returns the exploding node.
func (e *Explode) Dice() Node { return e.dice }

// Compare returns the node drawn against after every roll.
func (e *Explode) Compare() Node { return e.compare }

// Depth returns the maximum number of additional rolls.
func (e *Explode) Depth() int { return e.depth }

func (e *Explode) Kind() Kind { return KindExplode }

func (e *Explode) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	current, err := e.dice.Generate(src, n)
	if err != nil {
		return nil, err
	}
	result := make(domain.Batch, n)
	copy(result, current)

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	for extra := 0; extra < e.depth && len(active) > 0; extra++ {
		compare, err := e.compare.Generate(src, len(active))
		if err != nil {
			return nil, err
		}
		triggered := active[:0]
		for j, idx := range active {
			if e.rel.Holds(current[j], compare[j]) {
				triggered = append(triggered, idx)
			}
		}
		active = triggered
		if len(active) == 0 {
			break
		}
		current, err = e.dice.Generate(src, len(active))
		if err != nil {
			return nil, err
		}
		for j, idx := range active {
			result[idx] += current[j]
		}
	}
	return result, nil
}

func (e *Explode) Min() int { return e.dice.Min() + e.depth*min(0, e.dice.Min()) }

func (e *Explode) Max() int { return e.dice.Max() + e.depth*max(0, e.dice.Max()) }

// Distribution folds the explosion levels bottom-up:
//
//	E(0) = D
//	E(k)(v) = D(v)(1 - p(v)) + sum over x of D(x) p(x) E(k-1)(v - x)
//
// E(0) is the exhausted budget: the roll stays unexploded even when the predicate holds.
func (e *Explode) Distribution(lim domain.Limits) (domain.Distribution, error) {
	dice, err := e.dice.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	compare, err := e.compare.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}

	trigger := triggerProbabilities(e.rel, dice, compare)
	anyTrigger := false
	dice.Each(func(x int, p float64) {
		if p*trigger[x] > 0 {
			anyTrigger = true
		}
	})
	if !anyTrigger {
		return dice, nil
	}

	level := dice
	for k := 1; k <= e.depth; k++ {
		acc := domain.NewAccumulator()
		dice.Each(func(x int, p float64) {
			acc.Add(x, p*(1-trigger[x]))
			acc.AddShifted(level, x, p*trigger[x])
		})
		if err := lim.CheckOutcomes(acc.Len()); err != nil {
			return domain.Distribution{}, err
		}
		next := acc.Distribution()
		if next.Equal(level, fixedPointTolerance) {
			break
		}
		level = next
	}
	return level, nil
}

func (e *Explode) String() string {
	if e.depth == DefaultExplodeDepth {
		return fmt.Sprintf("%sx%s%s", operand(e.dice), e.rel.Symbol(), operand(e.compare))
	}
	return fmt.Sprintf("%sx%s%s@%d", operand(e.dice), e.rel.Symbol(), operand(e.compare), e.depth)
}

func (e *Explode) Children() []Node { return []Node{e.dice, e.compare} }

func (e *Explode) isNode() {}
