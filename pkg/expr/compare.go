package expr

import (
	"github.com/aretw0/dicetree/pkg/domain"
)

// Capped clamps the outcome of dice so that it never violates a relation against compare.
// LessThan keeps the result at most compare-1, GreaterOrEqual at least compare, and so on.
type Capped struct {
	kind    Kind
	dice    Node
	compare Node
}

// NewLessThan caps dice at compare-1.
func NewLessThan(dice, compare Node) (*Capped, error) {
	return newCapped(KindLessThan, dice, compare)
}

// NewLessOrEqual caps dice at compare.
func NewLessOrEqual(dice, compare Node) (*Capped, error) {
	return newCapped(KindLessOrEqual, dice, compare)
}

// NewGreaterThan raises dice to at least compare+1.
func NewGreaterThan(dice, compare Node) (*Capped, error) {
	return newCapped(KindGreaterThan, dice, compare)
}

// NewGreaterOrEqual raises dice to at least compare.
func NewGreaterOrEqual(dice, compare Node) (*Capped, error) {
	return newCapped(KindGreaterOrEqual, dice, compare)
}

func newCapped(kind Kind, dice, compare Node) (*Capped, error) {
	if dice == nil {
		return nil, &domain.TypeError{Where: kind.String() + " dice", Value: dice}
	}
	if compare == nil {
		return nil, &domain.TypeError{Where: kind.String() + " compare", Value: compare}
	}
	return &Capped{kind: kind, dice: dice, compare: compare}, nil
}

// Dice returns the primary node.
func (c *Capped) Dice() Node { return c.dice }

// Compare returns the node the primary outcome is clamped against.
func (c *Capped) Compare() Node { return c.compare }

// offset shifts the compare outcome into the bound it imposes.
func (c *Capped) offset() int {
	switch c.kind {
	case KindLessThan:
		return -1
	case KindGreaterThan:
		return 1
	default:
		return 0
	}
}

func (c *Capped) upper() bool {
	return c.kind == KindLessThan || c.kind == KindLessOrEqual
}

func (c *Capped) clamp(value, compare int) int {
	limit := compare + c.offset()
	if c.upper() {
		return min(value, limit)
	}
	return max(value, limit)
}

func (c *Capped) Kind() Kind { return c.kind }

func (c *Capped) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	rolls, err := c.dice.Generate(src, n)
	if err != nil {
		return nil, err
	}
	caps, err := c.compare.Generate(src, n)
	if err != nil {
		return nil, err
	}
	for i := range rolls {
		rolls[i] = c.clamp(rolls[i], caps[i])
	}
	return rolls, nil
}

func (c *Capped) Min() int {
	if c.upper() {
		return min(c.dice.Min(), c.compare.Min()+c.offset())
	}
	return max(c.dice.Min(), c.compare.Min()+c.offset())
}

func (c *Capped) Max() int {
	if c.upper() {
		return min(c.dice.Max(), c.compare.Max()+c.offset())
	}
	return max(c.dice.Max(), c.compare.Max()+c.offset())
}

// Distribution enumerates compare outcomes and caps the primary law against each.
// Capping is not injective, so weights are aggregated at the clamped outcome.
func (c *Capped) Distribution(lim domain.Limits) (domain.Distribution, error) {
	dice, err := c.dice.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	compare, err := c.compare.Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	return combine(dice, compare, lim, c.clamp)
}

func (c *Capped) String() string {
	symbol := map[Kind]string{
		KindLessThan:       "<",
		KindLessOrEqual:    "<=",
		KindGreaterThan:    ">",
		KindGreaterOrEqual: ">=",
	}[c.kind]
	return operand(c.dice) + symbol + operand(c.compare)
}

func (c *Capped) Children() []Node { return []Node{c.dice, c.compare} }

func (c *Capped) isNode() {}
