package expr

import (
	"strings"

	"github.com/aretw0/dicetree/pkg/domain"
)

type arithOp struct {
	kind   Kind
	symbol string
	apply  func(a, b int) int
	bound  func(a, b interval) interval
	// associative operators merge any same-kind operand; the others only a leading one.
	associative bool
}

var (
	opSum = arithOp{
		kind: KindSum, symbol: "+", associative: true,
		apply: func(a, b int) int { return a + b },
		bound: interval.add,
	}
	opDifference = arithOp{
		kind: KindDifference, symbol: "-",
		apply: func(a, b int) int { return a - b },
		bound: interval.sub,
	}
	opProduct = arithOp{
		kind: KindProduct, symbol: "*", associative: true,
		apply: func(a, b int) int { return a * b },
		bound: interval.mul,
	}
	opQuotient = arithOp{
		kind: KindQuotient, symbol: "/",
		apply: quotient,
		bound: interval.quo,
	}
)

// quotient truncates toward zero; a zero divisor yields 0.
func quotient(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// Arithmetic folds the outcomes of its operands left to right with one operator.
type Arithmetic struct {
	op    arithOp
	items []Node
}

// NewSum adds every operand.
func NewSum(items ...Node) (*Arithmetic, error) { return newArithmetic(opSum, items) }

// NewDifference subtracts every following operand from the first.
func NewDifference(items ...Node) (*Arithmetic, error) { return newArithmetic(opDifference, items) }

// NewProduct multiplies every operand.
func NewProduct(items ...Node) (*Arithmetic, error) { return newArithmetic(opProduct, items) }

// NewQuotient divides the first operand by each following one, truncating toward zero.
func NewQuotient(items ...Node) (*Arithmetic, error) { return newArithmetic(opQuotient, items) }

func newArithmetic(op arithOp, items []Node) (*Arithmetic, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOperands
	}
	flat := make([]Node, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, &domain.TypeError{Where: op.kind.String() + " operand", Value: item}
		}
		if same, ok := item.(*Arithmetic); ok && same.op.kind == op.kind && (op.associative || i == 0) {
			flat = append(flat, same.items...)
			continue
		}
		flat = append(flat, item)
	}
	return &Arithmetic{op: op, items: flat}, nil
}

// Operands returns the flattened operand list.
func (a *Arithmetic) Operands() []Node {
	out := make([]Node, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Arithmetic) Kind() Kind { return a.op.kind }

func (a *Arithmetic) Generate(src domain.Source, n int) (domain.Batch, error) {
	if err := checkCount(n); err != nil {
		return nil, err
	}
	result, err := a.items[0].Generate(src, n)
	if err != nil {
		return nil, err
	}
	for _, item := range a.items[1:] {
		next, err := item.Generate(src, n)
		if err != nil {
			return nil, err
		}
		for i := range result {
			result[i] = a.op.apply(result[i], next[i])
		}
	}
	return result, nil
}

func (a *Arithmetic) interval() interval {
	iv := bounds(a.items[0])
	for _, item := range a.items[1:] {
		iv = a.op.bound(iv, bounds(item))
	}
	return iv
}

func (a *Arithmetic) Min() int { return a.interval().lo }

func (a *Arithmetic) Max() int { return a.interval().hi }

func (a *Arithmetic) Distribution(lim domain.Limits) (domain.Distribution, error) {
	result, err := a.items[0].Distribution(lim)
	if err != nil {
		return domain.Distribution{}, err
	}
	for _, item := range a.items[1:] {
		next, err := item.Distribution(lim)
		if err != nil {
			return domain.Distribution{}, err
		}
		result, err = combine(result, next, lim, a.op.apply)
		if err != nil {
			return domain.Distribution{}, err
		}
	}
	return result, nil
}

func (a *Arithmetic) String() string {
	parts := make([]string, len(a.items))
	for i, item := range a.items {
		parts[i] = item.String()
	}
	return "(" + strings.Join(parts, " "+a.op.symbol+" ") + ")"
}

func (a *Arithmetic) Children() []Node { return a.Operands() }

func (a *Arithmetic) isNode() {}
