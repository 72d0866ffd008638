package expr

import (
	"fmt"
	"math"

	"github.com/aretw0/dicetree/pkg/domain"
)

// DefaultRerollLimit is the number of reroll rounds used when none is specified.
const DefaultRerollLimit = 1

// fixedPointTolerance stops iterative distribution loops once another level no longer changes the law.
const fixedPointTolerance = 1e-15

// Reroll replaces a roll that satisfies the relation against compare with a fresh roll,
// for at most limit rounds. Trials that stop matching settle for the rest of the call.
type Reroll struct {
	rel     domain.Relation
	dice    Node
	compare Node
	limit   int
}

// NewReroll builds a reroll node. A zero limit never rerolls.
func NewReroll(rel domain.Relation, dice, compare Node, limit int) (*Reroll, error) {
	if dice == nil {
		return nil, &domain.TypeError{Where: "reroll dice", Value: dice}
	}
	if compare == nil {
		return nil, &domain.TypeError{Where: "reroll compare", Value: compare}
	}
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return &Reroll{rel: rel, dice: dice, compare: compare, limit: limit}, nil
}

// Relation returns the reroll predicate.
func (r *Reroll) Relation() domain.Relation { return r.rel }

// Dice returns the rerolled node.
func (r *Reroll) Dice() Node { return r.dice }

// Compare returns the node drawn against on every round.
func (r *Reroll) Compare() Node { return r.compare }

// Limit returns the maximum number of reroll rounds.
func (r *Reroll) Limit() int { return r.limit }

func (r *Reroll) Kind() Kind { return KindReroll }

func (r *Reroll) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	result, err := r.dice.Generate(src, n)
	if err != nil {
		return nil, err
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	for round := 0; round < r.limit && len(active) > 0; round++ {
		compare, err := r.compare.Generate(src, len(active))
		if err != nil {
			return nil, err
		}
		matching := active[:0]
		for j, idx := range active {
			if r.rel.Holds(result[idx], compare[j]) {
				matching = append(matching, idx)
			}
		}
		active = matching
		if len(active) == 0 {
			break
		}
		fresh, err := r.dice.Generate(src, len(active))
		if err != nil {
			return nil, err
		}
		for j, idx := range active {
			result[idx] = fresh[j]
		}
	}
	return result, nil
}

func (r *Reroll) Min() int { return r.dice.Min() }

func (r *Reroll) Max() int { return r.dice.Max() }

// Distribution folds the reroll levels bottom-up:
//
//	F(0) = D
//	F(k)(v) = D(v)(1 - p(v)) + q F(k-1)(v)
//
// where p(x) = P(rel(x, C)) and q = sum over x of D(x) p(x).
func (r *Reroll) Distribution(lim domain.Limits) (domain.Distribution, error) {
	dice, err := r.dice.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	compare, err := r.compare.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}

	trigger := triggerProbabilities(r.rel, dice, compare)
	q := 0.0
	dice.Each(func(x int, p float64) { q += p * trigger[x] })
	if q == 0 {
		return dice, nil
	}

	level := dice
	for k := 1; k <= r.limit; k++ {
		acc := domain.NewAccumulator()
		dice.Each(func(v int, p float64) { acc.Add(v, p*(1-trigger[v])) })
		acc.AddShifted(level, 0, q)
		next := acc.Distribution()
		if next.Equal(level, fixedPointTolerance) {
			break
		}
		level = next
	}
	return level, nil
}

func (r *Reroll) String() string {
	if r.limit == DefaultRerollLimit {
		return fmt.Sprintf("%sr%s%s", operand(r.dice), r.rel.Symbol(), operand(r.compare))
	}
	return fmt.Sprintf("%sr%s%s@%d", operand(r.dice), r.rel.Symbol(), operand(r.compare), r.limit)
}

func (r *Reroll) Children() []Node { return []Node{r.dice, r.compare} }

func (r *Reroll) isNode() {}

// triggerProbabilities maps every dice outcome x to P(rel(x, C)).
func triggerProbabilities(rel domain.Relation, dice, compare domain.Distribution) map[int]float64 {
	trigger := make(map[int]float64, dice.Len())
	dice.Each(func(x int, _ float64) {
		p := compare.ProbWhere(func(c int) bool { return rel.Holds(x, c) })
		trigger[x] = math.Min(p, 1)
	})
	return trigger
}
