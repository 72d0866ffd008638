package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/dicetree/pkg/expr"
	"gopkg.in/yaml.v3"
)

// Encode converts an expression tree into its document. Observers are not part of a
// document and are dropped.
func Encode(node expr.Node) (*Spec, error) {
	switch n := node.(type) {
	case nil:
		return nil, fmt.Errorf("cannot encode a nil expression")
	case *expr.Constant:
		return Const(n.Value()), nil
	case *expr.UniformRange:
		lo, hi, step := n.Bounds()
		if lo == 1 && step == 1 {
			return Die(hi), nil
		}
		spec := &Spec{Kind: KindRange, Min: &lo, Max: &hi}
		if step != 1 {
			spec.Step = &step
		}
		return spec, nil
	case *expr.Arithmetic:
		spec := &Spec{Kind: n.Kind().String()}
		for _, item := range n.Operands() {
			child, err := Encode(item)
			if err != nil {
				return nil, err
			}
			spec.Items = append(spec.Items, child)
		}
		return spec, nil
	case *expr.Capped:
		return withOperands(&Spec{Kind: n.Kind().String()}, n.Dice(), n.Compare())
	case *expr.Reroll:
		limit := n.Limit()
		spec := &Spec{Kind: KindReroll, Relation: n.Relation().String()}
		if limit != expr.DefaultRerollLimit {
			spec.Limit = &limit
		}
		return withOperands(spec, n.Dice(), n.Compare())
	case *expr.Explode:
		depth := n.Depth()
		spec := &Spec{Kind: KindExplode, Relation: n.Relation().String()}
		if depth != expr.DefaultExplodeDepth {
			spec.Limit = &depth
		}
		return withOperands(spec, n.Dice(), n.Compare())
	case *expr.Pool:
		spec := &Spec{Kind: KindPool}
		var err error
		if spec.Count, err = Encode(n.Count()); err != nil {
			return nil, err
		}
		if spec.Dice, err = Encode(n.Dice()); err != nil {
			return nil, err
		}
		return spec, nil
	case *expr.Order:
		spec := &Spec{Kind: n.Kind().String()}
		var err error
		if spec.Of, err = Encode(n.Of()); err != nil {
			return nil, err
		}
		if spec.Dice, err = Encode(n.Dice()); err != nil {
			return nil, err
		}
		if spec.N, err = Encode(n.N()); err != nil {
			return nil, err
		}
		return spec, nil
	case *expr.Observed:
		return Encode(n.Inner())
	default:
		return nil, fmt.Errorf("cannot encode expression of kind %s", node.Kind())
	}
}

// withOperands fills the dice and compare fields shared by comparisons, rerolls and explosions.
func withOperands(spec *Spec, dice, compare expr.Node) (*Spec, error) {
	var err error
	if spec.Dice, err = Encode(dice); err != nil {
		return nil, err
	}
	if spec.Compare, err = Encode(compare); err != nil {
		return nil, err
	}
	return spec, nil
}

// Marshal writes the document in the given format.
func (s *Spec) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		return yaml.Marshal(s)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}
