package expr

import (
	"fmt"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Pool rolls count dice and sums them, where count is itself sampled per trial.
// Negative counts roll no dice.
type Pool struct {
	count Node
	dice  Node
}

// NewPool builds "count dice of type dice".
func NewPool(count, dice Node) (*Pool, error) {
	if count == nil {
		return nil, &domain.TypeError{Where: "pool count", Value: count}
	}
	if dice == nil {
		return nil, &domain.TypeError{Where: "pool dice", Value: dice}
	}
	return &Pool{count: count, dice: dice}, nil
}

// Count returns the node deciding how many dice are rolled.
func (p *Pool) Count() Node { return p.count }

// Dice returns the rolled node.
func (p *Pool) Dice() Node { return p.dice }

func (p *Pool) Kind() Kind { return KindPool }

func (p *Pool) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	counts, total, err := drawCounts(src, p.count, n)
	if err != nil {
		return nil, err
	}
	result := domain.NewBatch(n)
	if total == 0 {
		return result, nil
	}
	draws, err := p.dice.Generate(src, total)
	if err != nil {
		return nil, err
	}
	start := 0
	for i, c := range counts {
		for _, v := range draws[start : start+c] {
			result[i] += v
		}
		start += c
	}
	return result, nil
}

// drawCounts samples a per-trial dice count, clamped at zero, and the total number of dice.
func drawCounts(src domain.Source, count Node, n int) (domain.Batch, int, error) {
	counts, err := count.Generate(src, n)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for i, c := range counts {
		if c < 0 {
			counts[i] = 0
		}
		total += counts[i]
	}
	return counts, total, nil
}

// width is the clamped range of dice counts.
func width(count Node) interval {
	return interval{max(0, count.Min()), max(0, count.Max())}
}

func (p *Pool) Min() int { return width(p.count).mul(bounds(p.dice)).lo }

func (p *Pool) Max() int { return width(p.count).mul(bounds(p.dice)).hi }

// Distribution mixes the k-fold convolutions of the dice law, weighted by P(count = k).
func (p *Pool) Distribution(lim domain.Limits) (domain.Distribution, error) {
	counts, err := p.count.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	widest := max(0, counts.Max())
	if err := lim.CheckPoolWidth(widest); err != nil {
		return domain.Distribution{}, err
	}
	dice, err := p.dice.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	counts = counts.Map(func(k int) int { return max(0, k) })

	acc := domain.NewAccumulator()
	power := domain.Point(0)
	for k := 0; k <= widest; k++ {
		acc.AddShifted(power, 0, counts.Prob(k))
		if k == widest {
			break
		}
		power, err = combine(power, dice, lim, func(a, b int) int { return a + b })
		if err != nil {
			return domain.Distribution{}, err
		}
	}
	return acc.Distribution(), nil
}

func (p *Pool) String() string {
	return poolLabel(p.count, p.dice)
}

func poolLabel(count, dice Node) string {
	c := count.String()
	if _, ok := count.(*Constant); !ok {
		c = "(" + c + ")"
	}
	if _, ok := dice.(*UniformRange); ok {
		return c + dice.String()
	}
	return fmt.Sprintf("%s[%s]", c, dice)
}

func (p *Pool) Children() []Node { return []Node{p.count, p.dice} }

func (p *Pool) isNode() {}
