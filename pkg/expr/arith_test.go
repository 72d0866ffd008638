package expr_test

import (
	"errors"
	"testing"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic_Constants(t *testing.T) {
	tests := []struct {
		name string
		node expr.Node
		want int
	}{
		{"sum", mustNode(expr.NewSum(cst(2), cst(3), cst(4))), 9},
		{"difference", mustNode(expr.NewDifference(cst(10), cst(3), cst(2))), 5},
		{"product", mustNode(expr.NewProduct(cst(2), cst(-3))), -6},
		{"quotient", mustNode(expr.NewQuotient(cst(7), cst(2))), 3},
		{"quotient truncates toward zero", mustNode(expr.NewQuotient(cst(-7), cst(2))), -3},
		{"zero divisor", mustNode(expr.NewQuotient(cst(7), cst(0))), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := tt.node.Generate(seeded(1), 3)
			require.NoError(t, err)
			assert.Equal(t, domain.Batch{tt.want, tt.want, tt.want}, batch)
			assert.Equal(t, tt.want, tt.node.Min())
			assert.Equal(t, tt.want, tt.node.Max())
			assert.True(t, exact(t, tt.node).Equal(domain.Point(tt.want), 0))
		})
	}
}

func TestArithmetic_EmptyOperands(t *testing.T) {
	_, err := expr.NewSum()
	assert.True(t, errors.Is(err, domain.ErrEmptyOperands))
	_, err = expr.NewQuotient()
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestArithmetic_NilOperand(t *testing.T) {
	_, err := expr.NewProduct(cst(1), nil)
	assert.True(t, errors.Is(err, domain.ErrTypeMismatch))
}

func TestSum_Flattens(t *testing.T) {
	inner := mustNode(expr.NewSum(d(6), cst(1)))
	outer, err := expr.NewSum(cst(2), inner)
	require.NoError(t, err)
	assert.Len(t, outer.Operands(), 3)
	assert.Equal(t, "(2 + d6 + 1)", outer.String())
}

func TestDifference_FlattensLeadingOperandOnly(t *testing.T) {
	left := mustNode(expr.NewDifference(cst(10), cst(3)))
	right := mustNode(expr.NewDifference(cst(4), cst(1)))

	node, err := expr.NewDifference(left, right)
	require.NoError(t, err)
	assert.Len(t, node.Operands(), 3)
	assert.Equal(t, "(10 - 3 - (4 - 1))", node.String())

	batch, err := node.Generate(seeded(1), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, batch[0])
}

func TestSum_TwoDice(t *testing.T) {
	node := mustNode(expr.NewSum(d(6), d(6)))
	assert.Equal(t, 2, node.Min())
	assert.Equal(t, 12, node.Max())

	dist := exact(t, node)
	assert.InDelta(t, 6.0/36.0, dist.Prob(7), 1e-12)
	assert.InDelta(t, 7.0, dist.Mean(), 1e-12)
}

func TestProduct_BoundsWithNegatives(t *testing.T) {
	signed := mustNode(expr.NewUniformRange(-3, 2, 1))
	node := mustNode(expr.NewProduct(signed, signed))
	assert.Equal(t, -6, node.Min())
	assert.Equal(t, 9, node.Max())

	dist := exact(t, node)
	assert.Equal(t, -6, dist.Min())
	assert.Equal(t, 9, dist.Max())
}

func TestQuotient_BoundsAcrossZeroDivisor(t *testing.T) {
	node := mustNode(expr.NewQuotient(cst(12), mustNode(expr.NewUniformRange(-2, 3, 1))))
	dist := exact(t, node)
	assert.Equal(t, []int{-12, -6, 0, 4, 6, 12}, dist.Outcomes())
	assert.LessOrEqual(t, node.Min(), dist.Min())
	assert.GreaterOrEqual(t, node.Max(), dist.Max())
}

func TestArithmetic_CombinationLimit(t *testing.T) {
	big := mustNode(expr.NewUniformRange(1, 1000, 1))
	node := mustNode(expr.NewProduct(big, big))
	_, err := node.Distribution(domain.Limits{MaxOutcomes: 50})
	assert.True(t, errors.Is(err, domain.ErrResourceLimit))
}
