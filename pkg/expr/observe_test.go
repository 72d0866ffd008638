package expr_test

import (
	"testing"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserved_RollCallback(t *testing.T) {
	var seen []int
	node := expr.WithRollObserver(d(6), func(v int) { seen = append(seen, v) })

	v, err := expr.Roll(seeded(4), node)
	require.NoError(t, err)
	assert.Equal(t, []int{v}, seen)

	_, err = node.Generate(seeded(4), 10)
	require.NoError(t, err)
	assert.Len(t, seen, 1, "batch generation does not report scalar rolls")
}

func TestObserved_GenerateCallbackGetsCopy(t *testing.T) {
	var seen []domain.Batch
	node := expr.WithGenerateObserver(d(6), func(b domain.Batch) {
		seen = append(seen, b)
		b[0] = -100
	})
	sum := mustNode(expr.NewSum(node, cst(1)))

	batch, err := sum.Generate(seeded(9), 5)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Len(t, seen[0], 5)
	assert.GreaterOrEqual(t, batch.Min(), 2, "observer mutations must not leak into the result")

	_, err = expr.Roll(seeded(9), node)
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Len(t, seen[1], 1)
}

func TestObserved_IsTransparent(t *testing.T) {
	inner := mustNode(expr.NewPool(cst(2), d(6)))
	node := expr.WithRollObserver(inner, func(int) {})
	assert.Equal(t, expr.KindObserved, node.Kind())
	assert.Equal(t, inner.String(), node.String())
	assert.Equal(t, inner.Min(), node.Min())
	assert.Equal(t, inner.Max(), node.Max())
	assert.True(t, exact(t, node).Equal(exact(t, inner), 0))
	assert.Same(t, inner, node.Inner())
}
