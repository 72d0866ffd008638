package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatch_Stats(t *testing.T) {
	b := Batch{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 40, b.Sum())
	assert.Equal(t, 2, b.Min())
	assert.Equal(t, 9, b.Max())
	assert.InDelta(t, 5.0, b.Mean(), 1e-12)
	assert.InDelta(t, 2.0, b.StdDev(), 1e-12)
}

func TestBatch_Empty(t *testing.T) {
	var b Batch
	assert.Zero(t, b.Sum())
	assert.Zero(t, b.Min())
	assert.Zero(t, b.Max())
	assert.Zero(t, b.Mean())
	assert.Zero(t, b.StdDev())
}

func TestBatch_Histogram(t *testing.T) {
	h := Batch{1, 1, 2, 3}.Histogram()
	assert.Equal(t, []int{1, 2, 3}, h.Outcomes())
	assert.InDelta(t, 0.5, h.Prob(1), 1e-12)
}

func TestFill(t *testing.T) {
	assert.Equal(t, Batch{7, 7, 7}, Fill(3, 7))
	assert.Len(t, NewBatch(4), 4)
}
