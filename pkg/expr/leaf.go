package expr

import (
	"fmt"
	"strconv"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Constant always yields the same value.
type Constant struct {
	value int
}

// NewConstant returns a node that always yields v.
func NewConstant(v int) *Constant {
	return &Constant{value: v}
}

// Value returns the fixed value.
func (c *Constant) Value() int { return c.value }

func (c *Constant) Kind() Kind { return KindConstant }

func (c *Constant) Generate(_ domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	return domain.Fill(n, c.value), nil
}

func (c *Constant) Min() int { return c.value }

func (c *Constant) Max() int { return c.value }

func (c *Constant) Distribution(domain.Limits) (domain.Distribution, error) {
	return domain.Point(c.value), nil
}

func (c *Constant) String() string { return strconv.Itoa(c.value) }

func (c *Constant) Children() []Node { return nil }

func (c *Constant) isNode() {}

// UniformRange yields lo, lo+step, lo+2*step, ... up to and including hi when reachable,
// each with equal probability.
type UniformRange struct {
	lo, hi, step int
}

// NewUniformRange validates and builds a steppable inclusive range.
func NewUniformRange(lo, hi, step int) (*UniformRange, error) {
	if step < 1 || hi < lo {
		return nil, fmt.Errorf("%w (got min=%d max=%d step=%d)", domain.ErrInvalidRange, lo, hi, step)
	}
	return &UniformRange{lo: lo, hi: hi, step: step}, nil
}

// NewDie returns the classic die with faces 1..sides.
func NewDie(sides int) (*UniformRange, error) {
	return NewUniformRange(1, sides, 1)
}

// Bounds returns the configured lower bound, upper bound and step.
func (u *UniformRange) Bounds() (lo, hi, step int) { return u.lo, u.hi, u.step }

// faces is the number of reachable values.
func (u *UniformRange) faces() int { return (u.hi-u.lo)/u.step + 1 }

func (u *UniformRange) Kind() Kind { return KindRange }

func (u *UniformRange) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	last := u.faces() - 1
	out := domain.NewBatch(n)
	for i := range out {
		out[i] = u.lo + src.IntRange(0, last)*u.step
	}
	return out, nil
}

func (u *UniformRange) Min() int { return u.lo }

// Max is the last value reachable by stepping, which may be below the configured upper bound.
func (u *UniformRange) Max() int { return u.lo + (u.faces()-1)*u.step }

func (u *UniformRange) Distribution(lim domain.Limits) (domain.Distribution, error) {
	if err := lim.CheckOutcomes(u.faces()); err != nil {
		return domain.Distribution{}, err
	}
	values := make([]int, u.faces())
	for i := range values {
		values[i] = u.lo + i*u.step
	}
	return domain.Uniform(values...), nil
}

func (u *UniformRange) String() string {
	switch {
	case u.step != 1:
		return fmt.Sprintf("rng(%d,%d,%d)", u.lo, u.hi, u.step)
	case u.lo == 1:
		return fmt.Sprintf("d%d", u.hi)
	default:
		return fmt.Sprintf("d[%d to %d]", u.lo, u.hi)
	}
}

func (u *UniformRange) Children() []Node { return nil }

func (u *UniformRange) isNode() {}
