package expr_test

import (
	"errors"
	"testing"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplode_ZeroDepth(t *testing.T) {
	node, err := expr.NewExplode(domain.Eq, cst(6), cst(6), 0)
	require.NoError(t, err)
	batch, err := node.Generate(seeded(1), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Fill(10, 6), batch)
	assert.Equal(t, 6, node.Max())
	assert.True(t, exact(t, node).Equal(domain.Point(6), 0))
}

func TestExplode_ConstantAlwaysTriggersUpToDepth(t *testing.T) {
	node := mustNode(expr.NewExplode(domain.Eq, cst(6), cst(6), 3))
	batch, err := node.Generate(seeded(1), 5)
	require.NoError(t, err)
	assert.Equal(t, domain.Fill(5, 24), batch)
	assert.Equal(t, 24, node.Max())
	assert.True(t, exact(t, node).Equal(domain.Point(24), 1e-12))
}

func TestExplode_SingleLevel(t *testing.T) {
	node := mustNode(expr.NewExplode(domain.Eq, d(6), cst(6), 1))
	assert.Equal(t, "d6x6@1", node.String())
	assert.Equal(t, 1, node.Min())
	assert.Equal(t, 12, node.Max())

	dist := exact(t, node)
	for v := 1; v <= 5; v++ {
		assert.InDelta(t, 1.0/6.0, dist.Prob(v), 1e-12)
	}
	assert.Zero(t, dist.Prob(6))
	for v := 7; v <= 12; v++ {
		assert.InDelta(t, 1.0/36.0, dist.Prob(v), 1e-12)
	}
}

func TestExplode_DefaultDepthMean(t *testing.T) {
	node := mustNode(expr.NewExplode(domain.Eq, d(6), cst(6), expr.DefaultExplodeDepth))
	assert.Equal(t, "d6x6", node.String())
	// E[X] = 3.5 / (1 - 1/6)
	assert.InDelta(t, 4.2, exact(t, node).Mean(), 1e-9)
}

func TestExplode_NegativeBounds(t *testing.T) {
	signed := mustNode(expr.NewUniformRange(-2, 3, 1))
	node := mustNode(expr.NewExplode(domain.Le, signed, cst(-2), 2))
	assert.Equal(t, -6, node.Min())
	assert.Equal(t, 9, node.Max())

	dist := exact(t, node)
	assert.Equal(t, -6, dist.Min())
	assert.LessOrEqual(t, dist.Max(), 9)
}

func TestExplode_NegativeDepth(t *testing.T) {
	_, err := expr.NewExplode(domain.Eq, d(6), cst(6), -2)
	assert.True(t, errors.Is(err, domain.ErrNegativeLimit))
}

func TestExplode_OutcomeLimit(t *testing.T) {
	node := mustNode(expr.NewExplode(domain.Ge, d(20), cst(1), 50))
	_, err := node.Distribution(domain.Limits{MaxOutcomes: 100})
	assert.True(t, errors.Is(err, domain.ErrResourceLimit))
}
