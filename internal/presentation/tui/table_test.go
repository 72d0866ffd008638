package tui_test

import (
	"strings"
	"testing"

	"github.com/aretw0/dicetree/internal/presentation/tui"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestDistributionTable(t *testing.T) {
	out := tui.DistributionTable("d4", domain.Uniform(1, 2, 3, 4))

	assert.True(t, strings.HasPrefix(out, "## d4\n\n"))
	assert.Contains(t, out, "mean **2.5000**")
	assert.Contains(t, out, "range **1..4**")
	assert.Contains(t, out, "| 1 | 25.0000% | 100.00% | "+strings.Repeat("█", 30)+" |")
	assert.Contains(t, out, "| 4 | 25.0000% | 25.00% |")
}

func TestDistributionTable_BarsScaleToMode(t *testing.T) {
	dist := domain.FromWeights(map[int]float64{0: 1, 1: 3})
	out := tui.DistributionTable("skew", dist)
	assert.Contains(t, out, "| 0 | 25.0000% | 100.00% | "+strings.Repeat("█", 10)+" |")
	assert.Contains(t, out, "| 1 | 75.0000% | 75.00% | "+strings.Repeat("█", 30)+" |")
}

func TestDistributionTable_Empty(t *testing.T) {
	assert.Contains(t, tui.DistributionTable("none", domain.Distribution{}), "_empty distribution_")
}

func TestSummaryTable(t *testing.T) {
	out := tui.SummaryTable("3d6", 1000, 10.5, 2.958, 3, 18)
	assert.Contains(t, out, "| 1000 | 10.5000 | 2.9580 | 3 | 18 |")
}

func TestPlainRenderer(t *testing.T) {
	out, err := tui.Plain("# title")
	assert.NoError(t, err)
	assert.Equal(t, "# title", out)
}
