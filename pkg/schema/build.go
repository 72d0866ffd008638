package schema

import (
	"fmt"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
)

// Build checks spec and constructs the expression tree it describes.
// All field problems are reported together in an *AggregateError.
func Build(spec *Spec) (expr.Node, error) {
	b := &builder{}
	node := b.node("", spec)
	if len(b.errs) > 0 {
		return nil, &AggregateError{Errors: b.errs}
	}
	return node, nil
}

type builder struct {
	errs []error
}

func (b *builder) fail(key, reason string, value any) {
	b.errs = append(b.errs, &ValidationError{Key: key, Reason: reason, Value: value})
}

// wrap records a construction error from the expression package.
func (b *builder) wrap(key string, err error) {
	b.errs = append(b.errs, &ValidationError{Key: key, Reason: err.Error(), Err: err})
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func (b *builder) required(path, field string, v *int) int {
	if v == nil {
		b.fail(join(path, field), "required", nil)
		return 0
	}
	return *v
}

func (b *builder) child(path, field string, spec *Spec) expr.Node {
	if spec == nil {
		b.fail(join(path, field), "required", nil)
		return nil
	}
	return b.node(join(path, field), spec)
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// node returns nil once any error has been recorded beneath it.
func (b *builder) node(path string, spec *Spec) expr.Node {
	if spec == nil {
		b.fail(join(path, "kind"), "required", nil)
		return nil
	}
	before := len(b.errs)
	node, err := b.construct(path, spec)
	if err != nil {
		b.wrap(join(path, "kind"), err)
		return nil
	}
	if len(b.errs) > before {
		return nil
	}
	return node
}

func (b *builder) construct(path string, spec *Spec) (expr.Node, error) {
	switch spec.Kind {
	case KindConst:
		return expr.NewConstant(b.required(path, "value", spec.Value)), nil

	case KindDie:
		sides := b.required(path, "sides", spec.Sides)
		if spec.Sides == nil {
			return nil, nil
		}
		return orNil(expr.NewDie(sides))

	case KindRange:
		lo := b.required(path, "min", spec.Min)
		hi := b.required(path, "max", spec.Max)
		if spec.Min == nil || spec.Max == nil {
			return nil, nil
		}
		return orNil(expr.NewUniformRange(lo, hi, orDefault(spec.Step, 1)))

	case KindSum, KindDifference, KindProduct, KindQuotient:
		if len(spec.Items) == 0 {
			b.fail(join(path, "items"), "at least one operand is required", nil)
			return nil, nil
		}
		items := make([]expr.Node, len(spec.Items))
		for i, item := range spec.Items {
			items[i] = b.node(fmt.Sprintf("%s[%d]", join(path, "items"), i), item)
		}
		if b.anyNil(items) {
			return nil, nil
		}
		return arithmetic(spec.Kind, items)

	case KindLessThan, KindLessOrEqual, KindGreaterThan, KindGreaterOrEq:
		dice := b.child(path, "dice", spec.Dice)
		compare := b.child(path, "compare", spec.Compare)
		if b.anyNil([]expr.Node{dice, compare}) {
			return nil, nil
		}
		return capped(spec.Kind, dice, compare)

	case KindReroll, KindExplode:
		dice := b.child(path, "dice", spec.Dice)
		compare := b.child(path, "compare", spec.Compare)
		rel, err := domain.ParseRelation(spec.Relation)
		if err != nil {
			b.fail(join(path, "relation"), "must be one of eq, gt, ge, lt, le", spec.Relation)
		}
		if err != nil || b.anyNil([]expr.Node{dice, compare}) {
			return nil, nil
		}
		if spec.Kind == KindReroll {
			return orNil(expr.NewReroll(rel, dice, compare, orDefault(spec.Limit, expr.DefaultRerollLimit)))
		}
		return orNil(expr.NewExplode(rel, dice, compare, orDefault(spec.Limit, expr.DefaultExplodeDepth)))

	case KindPool:
		count := b.child(path, "count", spec.Count)
		dice := b.child(path, "dice", spec.Dice)
		if b.anyNil([]expr.Node{count, dice}) {
			return nil, nil
		}
		return orNil(expr.NewPool(count, dice))

	case KindKeepHighest, KindKeepLowest, KindDropHighest, KindDropLowest:
		of := b.child(path, "of", spec.Of)
		dice := b.child(path, "dice", spec.Dice)
		var n expr.Node = expr.NewConstant(1)
		if spec.N != nil {
			n = b.node(join(path, "n"), spec.N)
		}
		if b.anyNil([]expr.Node{of, dice, n}) {
			return nil, nil
		}
		return orNil(expr.NewOrder(orderKinds[spec.Kind], of, dice, n))

	case "":
		b.fail(join(path, "kind"), "required", nil)
		return nil, nil

	default:
		b.fail(join(path, "kind"), "unknown kind", spec.Kind)
		return nil, nil
	}
}

func (b *builder) anyNil(nodes []expr.Node) bool {
	for _, n := range nodes {
		if n == nil {
			return true
		}
	}
	return false
}

// orNil erases the concrete pointer type so that a failed constructor yields a nil interface.
func orNil[T expr.Node](node T, err error) (expr.Node, error) {
	if err != nil {
		return nil, err
	}
	return node, nil
}

var orderKinds = map[string]expr.Kind{
	KindKeepHighest: expr.KindKeepHighest,
	KindKeepLowest:  expr.KindKeepLowest,
	KindDropHighest: expr.KindDropHighest,
	KindDropLowest:  expr.KindDropLowest,
}

func arithmetic(kind string, items []expr.Node) (expr.Node, error) {
	switch kind {
	case KindSum:
		return orNil(expr.NewSum(items...))
	case KindDifference:
		return orNil(expr.NewDifference(items...))
	case KindProduct:
		return orNil(expr.NewProduct(items...))
	default:
		return orNil(expr.NewQuotient(items...))
	}
}

func capped(kind string, dice, compare expr.Node) (expr.Node, error) {
	switch kind {
	case KindLessThan:
		return orNil(expr.NewLessThan(dice, compare))
	case KindLessOrEqual:
		return orNil(expr.NewLessOrEqual(dice, compare))
	case KindGreaterThan:
		return orNil(expr.NewGreaterThan(dice, compare))
	default:
		return orNil(expr.NewGreaterOrEqual(dice, compare))
	}
}

// Load parses a YAML or JSON document and builds its expression.
func Load(data []byte) (expr.Node, error) {
	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}

// Compile builds the expression of an already unmarshalled document.
func Compile(raw any) (expr.Node, error) {
	spec, err := FromMap(raw)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}
