package domain

import "fmt"

// Relation is the comparison applied by reroll and explode predicates.
// The rolled value is always the left operand: Lt holds when value < compare.
type Relation int

const (
	Eq Relation = iota
	Gt
	Ge
	Lt
	Le
)

// Relations lists every supported relation.
var Relations = []Relation{Eq, Gt, Ge, Lt, Le}

// Holds reports whether value REL compare.
func (r Relation) Holds(value, compare int) bool {
	switch r {
	case Eq:
		return value == compare
	case Gt:
		return value > compare
	case Ge:
		return value >= compare
	case Lt:
		return value < compare
	case Le:
		return value <= compare
	default:
		return false
	}
}

// Symbol returns the operator used in describe strings. Eq renders empty ("d6r1").
func (r Relation) Symbol() string {
	switch r {
	case Eq:
		return ""
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	default:
		return "?"
	}
}

func (r Relation) String() string {
	switch r {
	case Eq:
		return "eq"
	case Gt:
		return "gt"
	case Ge:
		return "ge"
	case Lt:
		return "lt"
	case Le:
		return "le"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

// ParseRelation converts a relation name ("eq", "gt", ...) or symbol ("==", ">", ...).
func ParseRelation(s string) (Relation, error) {
	switch s {
	case "eq", "==", "=", "":
		return Eq, nil
	case "gt", ">":
		return Gt, nil
	case "ge", ">=":
		return Ge, nil
	case "lt", "<":
		return Lt, nil
	case "le", "<=":
		return Le, nil
	default:
		return Eq, fmt.Errorf("%w: unknown relation %q", ErrInvalidArgument, s)
	}
}
