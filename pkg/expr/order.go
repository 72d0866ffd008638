package expr

import (
	"fmt"
	"sort"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Order rolls a pool of dice, sorts it and sums a contiguous slice selected by rank.
// Keep variants sum the n highest or lowest dice; Drop variants sum what is left after
// removing the n highest or lowest. Ties need no tie-break: equal values contribute equally.
type Order struct {
	kind Kind
	of   Node
	dice Node
	n    Node
}

// NewKeepHighest sums the n highest of `of` rolls of dice.
func NewKeepHighest(of, dice, n Node) (*Order, error) {
	return newOrder(KindKeepHighest, of, dice, n)
}

// NewKeepLowest sums the n lowest of `of` rolls of dice.
func NewKeepLowest(of, dice, n Node) (*Order, error) {
	return newOrder(KindKeepLowest, of, dice, n)
}

// NewDropHighest sums `of` rolls of dice without the n highest.
func NewDropHighest(of, dice, n Node) (*Order, error) {
	return newOrder(KindDropHighest, of, dice, n)
}

// NewDropLowest sums `of` rolls of dice without the n lowest.
func NewDropLowest(of, dice, n Node) (*Order, error) {
	return newOrder(KindDropLowest, of, dice, n)
}

// NewOrder builds an order-statistic node of the given kind.
func NewOrder(kind Kind, of, dice, n Node) (*Order, error) {
	switch kind {
	case KindKeepHighest, KindKeepLowest, KindDropHighest, KindDropLowest:
		return newOrder(kind, of, dice, n)
	default:
		return nil, fmt.Errorf("%w: %s is not an order statistic", domain.ErrInvalidArgument, kind)
	}
}

func newOrder(kind Kind, of, dice, n Node) (*Order, error) {
	for _, arg := range []struct {
		name string
		node Node
	}{{"of", of}, {"dice", dice}, {"n", n}} {
		if arg.node == nil {
			return nil, &domain.TypeError{Where: kind.String() + " " + arg.name, Value: arg.node}
		}
	}
	return &Order{kind: kind, of: of, dice: dice, n: n}, nil
}

// Of returns the node deciding the pool size.
func (o *Order) Of() Node { return o.of }

// Dice returns the rolled node.
func (o *Order) Dice() Node { return o.dice }

// N returns the node deciding how many dice are kept or dropped.
func (o *Order) N() Node { return o.n }

func (o *Order) Kind() Kind { return o.kind }

func (o *Order) keepsHighest() bool {
	return o.kind == KindKeepHighest || o.kind == KindDropLowest
}

func (o *Order) isDrop() bool {
	return o.kind == KindDropHighest || o.kind == KindDropLowest
}

// kept returns how many of a pool of size m are summed when the selection count is n.
func (o *Order) kept(m, n int) int {
	sel := min(max(0, n), m)
	if o.isDrop() {
		return m - sel
	}
	return sel
}

// Generate draws of, then n, then every die of every trial in one batched call.
func (o *Order) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	counts, total, err := drawCounts(src, o.of, n)
	if err != nil {
		return nil, err
	}
	selections, err := o.n.Generate(src, n)
	if err != nil {
		return nil, err
	}
	result := domain.NewBatch(n)
	if total == 0 {
		return result, nil
	}
	draws, err := o.dice.Generate(src, total)
	if err != nil {
		return nil, err
	}

	start := 0
	for i, m := range counts {
		run := draws[start : start+m]
		start += m
		sort.Ints(run)
		k := o.kept(m, selections[i])
		var slice []int
		if o.keepsHighest() {
			slice = run[m-k:]
		} else {
			slice = run[:k]
		}
		for _, v := range slice {
			result[i] += v
		}
	}
	return result, nil
}

// keptRange is the range of the number of summed dice.
func (o *Order) keptRange() interval {
	of := width(o.of)
	sel := width(o.n)
	if o.isDrop() {
		return interval{max(0, of.lo-sel.hi), max(0, of.hi-sel.lo)}
	}
	return interval{min(sel.lo, of.lo), min(sel.hi, of.hi)}
}

func (o *Order) Min() int { return o.keptRange().mul(bounds(o.dice)).lo }

func (o *Order) Max() int { return o.keptRange().mul(bounds(o.dice)).hi }

// Distribution mixes, over every (of, n) pair, the law of the sum of the selected order
// statistics of the pool.
func (o *Order) Distribution(lim domain.Limits) (domain.Distribution, error) {
	ofDist, err := o.of.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	if err := lim.CheckPoolWidth(ofDist.Max()); err != nil {
		return domain.Distribution{}, err
	}
	nDist, err := o.n.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	dice, err := o.dice.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}

	type key struct{ m, k int }
	memo := make(map[key]domain.Distribution)
	acc := domain.NewAccumulator()
	var failure error
	var work float64
	ofDist.Each(func(m int, pm float64) {
		nDist.Each(func(n int, pn float64) {
			if failure != nil {
				return
			}
			size := max(0, m)
			k := o.kept(size, n)
			d, ok := memo[key{size, k}]
			if !ok {
				work += selectionWork(float64(dice.Len()), size, k, dice.Max()-dice.Min())
				if failure = lim.CheckWork(work); failure != nil {
					return
				}
				d, failure = selectedSum(dice, size, k, o.keepsHighest(), lim)
				memo[key{size, k}] = d
			}
			acc.AddShifted(d, 0, pm*pn)
		})
	})
	if failure != nil {
		return domain.Distribution{}, failure
	}
	return acc.Distribution(), nil
}

// Work estimates the steps of Distribution when the dice law has faces outcomes, taking the
// widest pool and the most kept dice the bounds allow.
func (o *Order) Work(faces float64) float64 {
	dice := bounds(o.dice)
	return selectionWork(faces, width(o.of).hi, o.keptRange().hi, dice.hi-dice.lo)
}

// selectionWork bounds the state updates of selectedSum: for each face, every (assigned,
// drawn) pair touches at most k*span+1 partial sums.
func selectionWork(faces float64, m, k, span int) float64 {
	if m <= 0 || k <= 0 {
		return 0
	}
	pairs := float64(m+1) * float64(m+2) / 2
	return faces * pairs * (float64(k)*float64(span) + 1)
}

// selectedSum is the law of the sum of the k highest (or lowest) of m independent rolls of dice.
//
// Outcome values are visited from the kept end. At each value v the remaining dice are split
// multinomially: c more dice show v with weight C(m-j, c) P(v)^c, and the first k dice
// assigned are the kept ones. States track (dice assigned, kept sum).
func selectedSum(dice domain.Distribution, m, k int, highest bool, lim domain.Limits) (domain.Distribution, error) {
	if m == 0 || k == 0 {
		return domain.Point(0), nil
	}
	values := dice.Entries()
	if highest {
		for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
			values[i], values[j] = values[j], values[i]
		}
	}
	binom := binomials(m)

	state := make([]map[int]float64, m+1)
	state[0] = map[int]float64{0: 1}
	for idx, e := range values {
		last := idx == len(values)-1
		powers := make([]float64, m+1)
		powers[0] = 1
		for c := 1; c <= m; c++ {
			powers[c] = powers[c-1] * e.Probability
		}

		next := make([]map[int]float64, m+1)
		for j, sums := range state {
			if len(sums) == 0 {
				continue
			}
			remaining := m - j
			lo := 0
			if last {
				lo = remaining
			}
			for c := lo; c <= remaining; c++ {
				w := binom[remaining][c] * powers[c]
				if w == 0 {
					continue
				}
				add := min(c, max(0, k-j)) * e.Outcome
				if next[j+c] == nil {
					next[j+c] = make(map[int]float64)
				}
				for s, q := range sums {
					next[j+c][s+add] += q * w
				}
			}
		}
		for _, sums := range next {
			if err := lim.CheckOutcomes(len(sums)); err != nil {
				return domain.Distribution{}, err
			}
		}
		state = next
	}
	return domain.FromWeights(state[m]), nil
}

// binomials returns Pascal's triangle up to row m.
func binomials(m int) [][]float64 {
	rows := make([][]float64, m+1)
	for i := range rows {
		rows[i] = make([]float64, i+1)
		rows[i][0], rows[i][i] = 1, 1
		for j := 1; j < i; j++ {
			rows[i][j] = rows[i-1][j-1] + rows[i-1][j]
		}
	}
	return rows
}

func (o *Order) String() string {
	suffix := map[Kind]string{
		KindKeepHighest: "kh",
		KindKeepLowest:  "kl",
		KindDropHighest: "dh",
		KindDropLowest:  "dl",
	}[o.kind]
	n := o.n.String()
	if c, ok := o.n.(*Constant); ok && c.Value() == 1 {
		n = ""
	} else if !ok {
		n = "(" + n + ")"
	}
	return poolLabel(o.of, o.dice) + suffix + n
}

func (o *Order) Children() []Node { return []Node{o.of, o.dice, o.n} }

func (o *Order) isNode() {}
