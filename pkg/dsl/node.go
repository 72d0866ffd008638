package dsl

import (
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
)

// then applies build to the current node and a lifted operand.
func (e *Expr) then(operand any, build func(self, other expr.Node) (expr.Node, error)) *Expr {
	if e.err != nil {
		return e
	}
	other, err := Lift(operand)
	if err != nil {
		return &Expr{err: err}
	}
	node, err := build(e.node, other)
	if err != nil {
		return &Expr{err: err}
	}
	return &Expr{node: node}
}

func (e *Expr) fold(operands []any, build func(...expr.Node) (*expr.Arithmetic, error)) *Expr {
	if e.err != nil {
		return e
	}
	return arith(build, append([]any{e}, operands...))
}

// Plus adds the operands.
func (e *Expr) Plus(operands ...any) *Expr { return e.fold(operands, expr.NewSum) }

// Minus subtracts the operands in order.
func (e *Expr) Minus(operands ...any) *Expr { return e.fold(operands, expr.NewDifference) }

// Times multiplies by the operands.
func (e *Expr) Times(operands ...any) *Expr { return e.fold(operands, expr.NewProduct) }

// Div divides by the operands in order, truncating toward zero. Division by zero yields 0.
func (e *Expr) Div(operands ...any) *Expr { return e.fold(operands, expr.NewQuotient) }

func capped(build func(dice, compare expr.Node) (*expr.Capped, error)) func(a, b expr.Node) (expr.Node, error) {
	return func(a, b expr.Node) (expr.Node, error) { return build(a, b) }
}

// Lt caps the outcome below x.
func (e *Expr) Lt(x any) *Expr { return e.then(x, capped(expr.NewLessThan)) }

// Le caps the outcome at x.
func (e *Expr) Le(x any) *Expr { return e.then(x, capped(expr.NewLessOrEqual)) }

// Gt raises the outcome above x.
func (e *Expr) Gt(x any) *Expr { return e.then(x, capped(expr.NewGreaterThan)) }

// Ge raises the outcome to at least x.
func (e *Expr) Ge(x any) *Expr { return e.then(x, capped(expr.NewGreaterOrEqual)) }

// order splits the receiver into pool size and dice. A pool contributes its own count and
// dice; any other node is a pool of one.
func (e *Expr) order(kind expr.Kind, n any) *Expr {
	return e.then(n, func(self, sel expr.Node) (expr.Node, error) {
		if pool, ok := self.(*expr.Pool); ok {
			return expr.NewOrder(kind, pool.Count(), pool.Dice(), sel)
		}
		return expr.NewOrder(kind, expr.NewConstant(1), self, sel)
	})
}

// KeepHighest sums the n highest dice of the pool.
func (e *Expr) KeepHighest(n any) *Expr { return e.order(expr.KindKeepHighest, n) }

// KeepLowest sums the n lowest dice of the pool.
func (e *Expr) KeepLowest(n any) *Expr { return e.order(expr.KindKeepLowest, n) }

// DropHighest sums the pool without its n highest dice.
func (e *Expr) DropHighest(n any) *Expr { return e.order(expr.KindDropHighest, n) }

// DropLowest sums the pool without its n lowest dice.
func (e *Expr) DropLowest(n any) *Expr { return e.order(expr.KindDropLowest, n) }

// Predicate selects the relation of a pending reroll or explode.
type Predicate struct {
	base  *Expr
	limit int
	build func(rel domain.Relation, dice, compare expr.Node, limit int) (expr.Node, error)
}

// Reroll rerolls matching outcomes for at most limit rounds. Complete it with a relation.
func (e *Expr) Reroll(limit int) *Predicate {
	return &Predicate{base: e, limit: limit, build: func(rel domain.Relation, dice, compare expr.Node, limit int) (expr.Node, error) {
		return expr.NewReroll(rel, dice, compare, limit)
	}}
}

// Explode adds another roll after each matching outcome, at most depth times.
// Complete it with a relation.
func (e *Expr) Explode(depth int) *Predicate {
	return &Predicate{base: e, limit: depth, build: func(rel domain.Relation, dice, compare expr.Node, limit int) (expr.Node, error) {
		return expr.NewExplode(rel, dice, compare, limit)
	}}
}

// Where completes the predicate with an arbitrary relation.
func (p *Predicate) Where(rel domain.Relation, x any) *Expr {
	return p.base.then(x, func(dice, compare expr.Node) (expr.Node, error) {
		return p.build(rel, dice, compare, p.limit)
	})
}

// Eq triggers when the outcome equals x.
func (p *Predicate) Eq(x any) *Expr { return p.Where(domain.Eq, x) }

// Gt triggers when the outcome is greater than x.
func (p *Predicate) Gt(x any) *Expr { return p.Where(domain.Gt, x) }

// Ge triggers when the outcome is at least x.
func (p *Predicate) Ge(x any) *Expr { return p.Where(domain.Ge, x) }

// Lt triggers when the outcome is less than x.
func (p *Predicate) Lt(x any) *Expr { return p.Where(domain.Lt, x) }

// Le triggers when the outcome is at most x.
func (p *Predicate) Le(x any) *Expr { return p.Where(domain.Le, x) }

// OnRoll reports every scalar roll of the expression to fn.
func (e *Expr) OnRoll(fn expr.RollObserver) *Expr {
	if e.err != nil {
		return e
	}
	return &Expr{node: expr.WithRollObserver(e.node, fn)}
}

// OnGenerate reports every batch generated by the expression to fn.
func (e *Expr) OnGenerate(fn expr.GenerateObserver) *Expr {
	if e.err != nil {
		return e
	}
	return &Expr{node: expr.WithGenerateObserver(e.node, fn)}
}
