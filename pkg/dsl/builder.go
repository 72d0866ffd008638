package dsl

import (
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
)

// Expr is a node under construction. It records the first error met along a chain.
type Expr struct {
	node expr.Node
	err  error
}

// Lift converts a value into a node. Integers become constants; nodes and builders pass
// through. Anything else is a *domain.TypeError.
func Lift(v any) (expr.Node, error) {
	switch x := v.(type) {
	case int:
		return expr.NewConstant(x), nil
	case int64:
		return expr.NewConstant(int(x)), nil
	case int32:
		return expr.NewConstant(int(x)), nil
	case *Expr:
		if x == nil {
			return nil, &domain.TypeError{Where: "lift", Value: v}
		}
		return x.node, x.err
	case expr.Node:
		return x, nil
	default:
		return nil, &domain.TypeError{Where: "lift", Value: v}
	}
}

// From wraps any liftable value.
func From(v any) *Expr {
	node, err := Lift(v)
	return &Expr{node: node, err: err}
}

func wrap[T expr.Node](node T, err error) *Expr {
	if err != nil {
		return &Expr{err: err}
	}
	return &Expr{node: node}
}

// Const is a fixed value.
func Const(v int) *Expr {
	return &Expr{node: expr.NewConstant(v)}
}

// D is a die with faces 1..sides.
func D(sides int) *Expr {
	return wrap(expr.NewDie(sides))
}

// Range is a uniform draw from lo, lo+step, ... up to hi.
func Range(lo, hi, step int) *Expr {
	return wrap(expr.NewUniformRange(lo, hi, step))
}

// Pool sums count rolls of dice.
func Pool(count, dice any) *Expr {
	c, err := Lift(count)
	if err != nil {
		return &Expr{err: err}
	}
	d, err := Lift(dice)
	if err != nil {
		return &Expr{err: err}
	}
	return wrap(expr.NewPool(c, d))
}

// Count is the left half of "count dice": Of(3).D(6) is 3d6.
type Count struct {
	count any
}

// Of starts a pool of count dice.
func Of(count any) *Count {
	return &Count{count: count}
}

// D completes the pool with dice of the given number of sides.
func (c *Count) D(sides int) *Expr {
	return D(sides).times(c.count)
}

// Dice completes the pool with an arbitrary node.
func (c *Count) Dice(dice any) *Expr {
	return Pool(c.count, dice)
}

func (e *Expr) times(count any) *Expr {
	if e.err != nil {
		return e
	}
	return Pool(count, e.node)
}

// Sum adds every operand.
func Sum(items ...any) *Expr { return arith(expr.NewSum, items) }

// Product multiplies every operand.
func Product(items ...any) *Expr { return arith(expr.NewProduct, items) }

func arith[T expr.Node](build func(...expr.Node) (T, error), items []any) *Expr {
	nodes := make([]expr.Node, len(items))
	for i, item := range items {
		node, err := Lift(item)
		if err != nil {
			return &Expr{err: err}
		}
		nodes[i] = node
	}
	return wrap(build(nodes...))
}

// Build returns the finished node or the first error met while building it.
func (e *Expr) Build() (expr.Node, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.node, nil
}

// MustBuild is Build for expressions known to be valid. It panics on error.
func (e *Expr) MustBuild() expr.Node {
	node, err := e.Build()
	if err != nil {
		panic(err)
	}
	return node
}

// Err returns the first construction error, if any.
func (e *Expr) Err() error { return e.err }

// String is the description of the built node, or the construction error.
func (e *Expr) String() string {
	if e.err != nil {
		return "!" + e.err.Error()
	}
	return e.node.String()
}
