package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/dicetree/pkg/expr"
)

// Overlay adds annotations to the rendered tree.
type Overlay struct {
	// Bounds appends each node's [min, max] to its label.
	Bounds bool
	// Observed styles the nodes that carry roll or generate observers.
	Observed bool
}

// GenerateMermaid produces a Mermaid flowchart of the expression tree rooted at node.
// It applies semantic styling:
// - Constant: ((Circle))
// - Range: [/Parallelogram/]
// - Arithmetic: {Rhombus}
// - Capped comparison: {{Hexagon}}
// - Reroll/Explode: [[Subroutine]]
// - Pool and order statistics: [(Cylinder)] and [Rectangle]
// Edges carry the role of the child (dice, compare, count, of, n).
func GenerateMermaid(node expr.Node, overlay *Overlay) string {
	if overlay == nil {
		overlay = &Overlay{}
	}
	r := &renderer{overlay: overlay}
	r.sb.WriteString("graph TD\n")
	if node != nil {
		r.visit(node)
	}

	if overlay.Observed && len(r.observed) > 0 {
		r.sb.WriteString("\n    %% Overlay Styles\n")
		r.sb.WriteString("    classDef observed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, id := range r.observed {
			fmt.Fprintf(&r.sb, "    class %s observed;\n", id)
		}
	}
	return r.sb.String()
}

type renderer struct {
	sb       strings.Builder
	overlay  *Overlay
	next     int
	observed []string
}

type edge struct {
	role  string
	child expr.Node
}

// visit writes node and its subtree and returns the Mermaid id of node.
func (r *renderer) visit(node expr.Node) string {
	observed := false
	for {
		o, ok := node.(*expr.Observed)
		if !ok {
			break
		}
		observed = true
		node = o.Inner()
	}

	id := fmt.Sprintf("n%d", r.next)
	r.next++
	if observed {
		r.observed = append(r.observed, id)
	}

	label, opener, closer, edges := describe(node)
	label = escape(label)
	if r.overlay.Bounds {
		label = fmt.Sprintf("%s <br/> [%d, %d]", label, node.Min(), node.Max())
	}
	fmt.Fprintf(&r.sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

	for _, e := range edges {
		childID := r.visit(e.child)
		if e.role == "" {
			fmt.Fprintf(&r.sb, "    %s --> %s\n", id, childID)
		} else {
			fmt.Fprintf(&r.sb, "    %s -- \"%s\" --> %s\n", id, e.role, childID)
		}
	}
	return id
}

func describe(node expr.Node) (label, opener, closer string, edges []edge) {
	switch n := node.(type) {
	case *expr.Constant:
		return fmt.Sprint(n.Value()), "((", "))", nil
	case *expr.UniformRange:
		return n.String(), "[/", "/]", nil
	case *expr.Arithmetic:
		sym := map[expr.Kind]string{
			expr.KindSum:        "+",
			expr.KindDifference: "-",
			expr.KindProduct:    "*",
			expr.KindQuotient:   "/",
		}[n.Kind()]
		for _, op := range n.Operands() {
			edges = append(edges, edge{child: op})
		}
		return sym, "{", "}", edges
	case *expr.Capped:
		sym := map[expr.Kind]string{
			expr.KindLessThan:       "min <",
			expr.KindLessOrEqual:    "min <=",
			expr.KindGreaterThan:    "max >",
			expr.KindGreaterOrEqual: "max >=",
		}[n.Kind()]
		return sym, "{{", "}}", []edge{{"dice", n.Dice()}, {"compare", n.Compare()}}
	case *expr.Reroll:
		label := fmt.Sprintf("reroll %s @%d", n.Relation(), n.Limit())
		return label, "[[", "]]", []edge{{"dice", n.Dice()}, {"compare", n.Compare()}}
	case *expr.Explode:
		label := fmt.Sprintf("explode %s @%d", n.Relation(), n.Depth())
		return label, "[[", "]]", []edge{{"dice", n.Dice()}, {"compare", n.Compare()}}
	case *expr.Pool:
		return "pool", "[(", ")]", []edge{{"count", n.Count()}, {"dice", n.Dice()}}
	case *expr.Order:
		label := strings.ReplaceAll(n.Kind().String(), "_", " ")
		return label, "[", "]", []edge{{"of", n.Of()}, {"dice", n.Dice()}, {"n", n.N()}}
	default:
		for _, c := range node.Children() {
			edges = append(edges, edge{child: c})
		}
		return node.Kind().String(), "[", "]", edges
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "<=", "&le;")
	s = strings.ReplaceAll(s, ">=", "&ge;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
