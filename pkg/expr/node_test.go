package expr_test

import (
	"errors"
	"math"
	"testing"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoll_RequiresSource(t *testing.T) {
	_, err := expr.Roll(nil, d(6))
	assert.True(t, errors.Is(err, domain.ErrNoSource))
	_, err = expr.Sample(nil, d(6), 3)
	assert.True(t, errors.Is(err, domain.ErrNoSource))
	_, err = expr.Sample(seeded(1), nil, 3)
	assert.True(t, errors.Is(err, domain.ErrTypeMismatch))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "keep_highest", expr.KindKeepHighest.String())
	assert.Equal(t, "kind(99)", expr.Kind(99).String())
}

func TestWalk(t *testing.T) {
	node := mustNode(expr.NewSum(mustNode(expr.NewPool(cst(2), d(6))), cst(3)))
	var kinds []expr.Kind
	deepest := 0
	expr.Walk(node, func(n expr.Node, depth int) bool {
		kinds = append(kinds, n.Kind())
		deepest = max(deepest, depth)
		return true
	})
	assert.Equal(t, []expr.Kind{expr.KindSum, expr.KindPool, expr.KindConstant, expr.KindRange, expr.KindConstant}, kinds)
	assert.Equal(t, 3, deepest)

	visited := 0
	expr.Walk(node, func(expr.Node, int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

// propertyCases spans every node kind with nested and signed operands.
func propertyCases() map[string]expr.Node {
	signed := mustNode(expr.NewUniformRange(-3, 3, 1))
	return map[string]expr.Node{
		"d6":             d(6),
		"stepped range":  mustNode(expr.NewUniformRange(2, 20, 3)),
		"sum":            mustNode(expr.NewSum(d(6), d(8), cst(-2))),
		"difference":     mustNode(expr.NewDifference(d(10), d(4))),
		"product":        mustNode(expr.NewProduct(signed, d(4))),
		"quotient":       mustNode(expr.NewQuotient(d(20), signed)),
		"lt":             mustNode(expr.NewLessThan(d(20), d(12))),
		"ge":             mustNode(expr.NewGreaterOrEqual(d(6), cst(3))),
		"reroll":         mustNode(expr.NewReroll(domain.Le, d(6), cst(2), 2)),
		"reroll random":  mustNode(expr.NewReroll(domain.Lt, d(8), d(4), 3)),
		"explode":        mustNode(expr.NewExplode(domain.Eq, d(4), cst(4), 5)),
		"explode signed": mustNode(expr.NewExplode(domain.Ge, signed, cst(2), 3)),
		"pool":           mustNode(expr.NewPool(d(3), d(6))),
		"signed pool":    mustNode(expr.NewPool(signed, d(4))),
		"keep highest":   mustNode(expr.NewKeepHighest(cst(4), d(6), cst(3))),
		"keep lowest":    mustNode(expr.NewKeepLowest(d(4), d(8), d(2))),
		"drop highest":   mustNode(expr.NewDropHighest(cst(3), signed, cst(1))),
		"drop lowest":    mustNode(expr.NewDropLowest(cst(5), d(4), d(3))),
	}
}

func TestProperties_BoundsAndNormalization(t *testing.T) {
	for name, node := range propertyCases() {
		t.Run(name, func(t *testing.T) {
			dist := exact(t, node)
			assert.InDelta(t, 1.0, dist.Total(), 1e-9)
			assert.GreaterOrEqual(t, dist.Min(), node.Min())
			assert.LessOrEqual(t, dist.Max(), node.Max())

			batch, err := node.Generate(seeded(13), 2000)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, batch.Min(), node.Min())
			assert.LessOrEqual(t, batch.Max(), node.Max())
		})
	}
}

func TestProperties_SimulationAgreesWithExact(t *testing.T) {
	const trials = 20000
	for name, node := range propertyCases() {
		t.Run(name, func(t *testing.T) {
			dist := exact(t, node)
			batch, err := node.Generate(seeded(99), trials)
			require.NoError(t, err)

			tolerance := 6*dist.StdDev()/math.Sqrt(trials) + 1e-9
			assert.InDelta(t, dist.Mean(), batch.Mean(), tolerance)

			hist := batch.Histogram()
			hist.Each(func(v int, _ float64) {
				assert.Positive(t, dist.Prob(v), "simulated outcome %d missing from exact law", v)
			})
		})
	}
}

func TestProperties_Deterministic(t *testing.T) {
	for name, node := range propertyCases() {
		t.Run(name, func(t *testing.T) {
			a, err := node.Generate(seeded(5), 64)
			require.NoError(t, err)
			b, err := node.Generate(seeded(5), 64)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestDescription_DistinctTreesDiffer(t *testing.T) {
	lt := func(a, b expr.Node) expr.Node { return mustNode(expr.NewLessThan(a, b)) }
	x6 := func(a, b expr.Node) expr.Node {
		return mustNode(expr.NewExplode(domain.Eq, a, b, expr.DefaultExplodeDepth))
	}
	rlt := func(a, b expr.Node) expr.Node { return mustNode(expr.NewReroll(domain.Lt, a, b, 1)) }

	tests := []struct {
		name string
		a, b expr.Node
	}{
		{"nested caps", lt(lt(d(20), cst(5)), cst(3)), lt(d(20), lt(cst(5), cst(3)))},
		{"nested explodes", x6(x6(d(6), cst(6)), cst(6)), x6(d(6), x6(cst(6), cst(6)))},
		{"reroll against cap", rlt(lt(d(6), d(4)), cst(3)), rlt(d(6), lt(d(4), cst(3)))},
		{"pool under cap", lt(mustNode(expr.NewPool(cst(3), d(6))), cst(5)),
			mustNode(expr.NewPool(cst(3), lt(d(6), cst(5))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a.String(), tt.b.String())
		})
	}

	assert.Equal(t, "(d20<5)<3", tests[0].a.String())
	assert.Equal(t, "d20<(5<3)", tests[0].b.String())
	assert.Equal(t, "d6r<(d4<3)", tests[2].b.String())
}

func TestDescription_UniqueAcrossPropertyCases(t *testing.T) {
	seen := map[string]string{}
	for name, node := range propertyCases() {
		desc := node.String()
		assert.NotEmpty(t, desc)
		other, dup := seen[desc]
		assert.False(t, dup, "%s and %s share %q", name, other, desc)
		seen[desc] = name
	}
}
