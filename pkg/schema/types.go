package schema

// Document kinds.
const (
	KindConst       = "const"
	KindDie         = "die"
	KindRange       = "range"
	KindSum         = "sum"
	KindDifference  = "difference"
	KindProduct     = "product"
	KindQuotient    = "quotient"
	KindLessThan    = "lt"
	KindLessOrEqual = "le"
	KindGreaterThan = "gt"
	KindGreaterOrEq = "ge"
	KindReroll      = "reroll"
	KindExplode     = "explode"
	KindPool        = "pool"
	KindKeepHighest = "keep_highest"
	KindKeepLowest  = "keep_lowest"
	KindDropHighest = "drop_highest"
	KindDropLowest  = "drop_lowest"
)

// Kinds lists every document kind in a stable order.
var Kinds = []string{
	KindConst, KindDie, KindRange,
	KindSum, KindDifference, KindProduct, KindQuotient,
	KindLessThan, KindLessOrEqual, KindGreaterThan, KindGreaterOrEq,
	KindReroll, KindExplode,
	KindPool, KindKeepHighest, KindKeepLowest, KindDropHighest, KindDropLowest,
}

// Spec is one node of an expression document. Which fields apply depends on Kind.
type Spec struct {
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`

	// const
	Value *int `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// die
	Sides *int `json:"sides,omitempty" yaml:"sides,omitempty" mapstructure:"sides"`

	// range
	Min  *int `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max  *int `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Step *int `json:"step,omitempty" yaml:"step,omitempty" mapstructure:"step"`

	// sum, difference, product, quotient
	Items []*Spec `json:"items,omitempty" yaml:"items,omitempty" mapstructure:"items"`

	// comparisons, reroll, explode, pool and order statistics
	Dice    *Spec `json:"dice,omitempty" yaml:"dice,omitempty" mapstructure:"dice"`
	Compare *Spec `json:"compare,omitempty" yaml:"compare,omitempty" mapstructure:"compare"`

	// reroll, explode
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty" mapstructure:"relation"`
	Limit    *int   `json:"limit,omitempty" yaml:"limit,omitempty" mapstructure:"limit"`

	// pool
	Count *Spec `json:"count,omitempty" yaml:"count,omitempty" mapstructure:"count"`

	// order statistics
	Of *Spec `json:"of,omitempty" yaml:"of,omitempty" mapstructure:"of"`
	N  *Spec `json:"n,omitempty" yaml:"n,omitempty" mapstructure:"n"`
}

// Const returns the document of a constant.
func Const(v int) *Spec {
	return &Spec{Kind: KindConst, Value: &v}
}

// Die returns the document of a die with faces 1..sides.
func Die(sides int) *Spec {
	return &Spec{Kind: KindDie, Sides: &sides}
}
