package expr_test

import (
	"errors"
	"testing"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstant(t *testing.T) {
	c := expr.NewConstant(5)
	batch, err := c.Generate(seeded(1), 100)
	require.NoError(t, err)
	assert.Len(t, batch, 100)
	assert.Equal(t, 5, batch.Min())
	assert.Equal(t, 5, batch.Max())
	assert.Equal(t, 5, c.Min())
	assert.Equal(t, 5, c.Max())
	assert.Equal(t, "5", c.String())
	assert.True(t, exact(t, c).Equal(domain.Point(5), 0))
}

func TestGenerate_RejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := expr.NewConstant(1).Generate(seeded(1), n)
		assert.True(t, errors.Is(err, domain.ErrInvalidCount))
		_, err = die(t, 6).Generate(seeded(1), n)
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	}
}

func TestUniformRange_Validation(t *testing.T) {
	_, err := expr.NewUniformRange(5, 1, 1)
	assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	_, err = expr.NewUniformRange(1, 5, 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	_, err = expr.NewDie(0)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestUniformRange_StepBounds(t *testing.T) {
	r, err := expr.NewUniformRange(0, 11, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Min())
	assert.Equal(t, 10, r.Max(), "11 is not reachable from 0 in steps of 5")

	d := exact(t, r)
	assert.Equal(t, []int{0, 5, 10}, d.Outcomes())

	batch, err := r.Generate(seeded(4), 500)
	require.NoError(t, err)
	for _, v := range batch {
		assert.Contains(t, []int{0, 5, 10}, v)
	}
}

func TestUniformRange_String(t *testing.T) {
	tests := []struct {
		lo, hi, step int
		want         string
	}{
		{1, 6, 1, "d6"},
		{2, 8, 1, "d[2 to 8]"},
		{0, 10, 5, "rng(0,10,5)"},
	}
	for _, tt := range tests {
		r, err := expr.NewUniformRange(tt.lo, tt.hi, tt.step)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r.String())
	}
}

func TestUniformRange_CoversAllFaces(t *testing.T) {
	batch, err := die(t, 6).Generate(seeded(11), 3000)
	require.NoError(t, err)
	hist := batch.Histogram()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, hist.Outcomes())
	for v := 1; v <= 6; v++ {
		assert.InDelta(t, 1.0/6.0, hist.Prob(v), 0.03)
	}
}

func TestUniformRange_OutcomeLimit(t *testing.T) {
	r, err := expr.NewUniformRange(1, 1000, 1)
	require.NoError(t, err)
	_, err = r.Distribution(domain.Limits{MaxOutcomes: 100})
	assert.True(t, errors.Is(err, domain.ErrResourceLimit))
}
