package expr

import (
	"fmt"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Kind enumerates the closed set of node implementations.
type Kind int

const (
	KindConstant Kind = iota
	KindRange
	KindSum
	KindDifference
	KindProduct
	KindQuotient
	KindLessThan
	KindLessOrEqual
	KindGreaterThan
	KindGreaterOrEqual
	KindReroll
	KindExplode
	KindPool
	KindKeepHighest
	KindKeepLowest
	KindDropHighest
	KindDropLowest
	KindObserved
)

var kindNames = map[Kind]string{
	KindConstant:       "const",
	KindRange:          "range",
	KindSum:            "sum",
	KindDifference:     "difference",
	KindProduct:        "product",
	KindQuotient:       "quotient",
	KindLessThan:       "lt",
	KindLessOrEqual:    "le",
	KindGreaterThan:    "gt",
	KindGreaterOrEqual: "ge",
	KindReroll:         "reroll",
	KindExplode:        "explode",
	KindPool:           "pool",
	KindKeepHighest:    "keep_highest",
	KindKeepLowest:     "keep_lowest",
	KindDropHighest:    "drop_highest",
	KindDropLowest:     "drop_lowest",
	KindObserved:       "observed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is a composable sub-expression producing integer outcomes.
type Node interface {
	// Kind identifies the implementation.
	Kind() Kind

	// Generate produces n independent trial outcomes.
	// Returns domain.ErrInvalidCount if n <= 0.
	Generate(src domain.Source, n int) (domain.Batch, error)

	// Min and Max bound every value Generate can produce and every outcome of Distribution.
	Min() int
	Max() int

	// Distribution computes the exact outcome law.
	// Returns a *domain.LimitError when the computation would exceed lim.
	Distribution(lim domain.Limits) (domain.Distribution, error)

	// String is the canonical description. Equal descriptions denote equal laws.
	String() string

	// Children returns the direct sub-expressions in evaluation order.
	Children() []Node

	isNode()
}

// Sample validates the request and generates n trials of node.
// A nil source is a configuration failure reported as domain.ErrNoSource.
func Sample(src domain.Source, node Node, n int) (domain.Batch, error) {
	if src == nil {
		return nil, domain.ErrNoSource
	}
	if node == nil {
		return nil, &domain.TypeError{Where: "sample", Value: node}
	}
	return node.Generate(src, n)
}

type roller interface {
	roll(src domain.Source) (int, error)
}

// Roll is the scalar case: a single trial summed to one integer.
// Observer decorators report the value through their roll callback.
func Roll(src domain.Source, node Node) (int, error) {
	if src == nil {
		return 0, domain.ErrNoSource
	}
	if r, ok := node.(roller); ok {
		return r.roll(src)
	}
	batch, err := Sample(src, node, 1)
	if err != nil {
		return 0, err
	}
	return batch.Sum(), nil
}

// Walk visits node and its descendants depth-first, passing the nesting depth (root = 1).
// Returning false from fn skips the children of that node.
func Walk(node Node, fn func(n Node, depth int) bool) {
	walk(node, 1, fn)
}

func walk(node Node, depth int, fn func(Node, int) bool) {
	if !fn(node, depth) {
		return
	}
	for _, child := range node.Children() {
		walk(child, depth+1, fn)
	}
}

func checkCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w (got %d)", domain.ErrInvalidCount, n)
	}
	return nil
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w (got %d)", domain.ErrNegativeLimit, limit)
	}
	return nil
}

// combine computes f(X, Y) for independent operands, refusing work beyond the outcome ceiling.
func combine(a, b domain.Distribution, lim domain.Limits, f func(x, y int) int) (domain.Distribution, error) {
	lim = lim.Resolve()
	if pairs := a.Len() * b.Len(); pairs > lim.MaxOutcomes*combinationFactor {
		return domain.Distribution{}, &domain.LimitError{Resource: "combinations", Limit: lim.MaxOutcomes * combinationFactor, Requested: pairs}
	}
	out := a.Combine(b, f)
	if err := lim.CheckOutcomes(out.Len()); err != nil {
		return domain.Distribution{}, err
	}
	return out, nil
}

// combinationFactor scales MaxOutcomes into the ceiling on enumerated outcome pairs.
const combinationFactor = 256

// interval is a closed integer range used for bound arithmetic.
type interval struct{ lo, hi int }

func bounds(n Node) interval { return interval{n.Min(), n.Max()} }

func span(values ...int) interval {
	iv := interval{values[0], values[0]}
	for _, v := range values[1:] {
		iv.lo = min(iv.lo, v)
		iv.hi = max(iv.hi, v)
	}
	return iv
}

func (a interval) contains(v int) bool { return a.lo <= v && v <= a.hi }

func (a interval) add(b interval) interval { return interval{a.lo + b.lo, a.hi + b.hi} }

func (a interval) sub(b interval) interval { return interval{a.lo - b.hi, a.hi - b.lo} }

func (a interval) mul(b interval) interval {
	return span(a.lo*b.lo, a.lo*b.hi, a.hi*b.lo, a.hi*b.hi)
}

func (a interval) quo(b interval) interval {
	var candidates []int
	if b.contains(0) {
		candidates = append(candidates, 0)
	}
	for _, d := range []int{b.lo, b.hi, -1, 1} {
		if d == 0 || !b.contains(d) {
			continue
		}
		candidates = append(candidates, a.lo/d, a.hi/d)
	}
	return span(candidates...)
}

// operand renders a child inside a postfix description. Anything but a leaf or an
// already parenthesized sum is wrapped so that distinct trees never share a description.
func operand(n Node) string {
	inner := n
	for {
		o, ok := inner.(*Observed)
		if !ok {
			break
		}
		inner = o.inner
	}
	switch inner.(type) {
	case *Constant, *UniformRange, *Arithmetic:
		return n.String()
	default:
		return "(" + n.String() + ")"
	}
}
