package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/dicetree/pkg/domain"
)

const barWidth = 30

// DistributionTable formats dist as a markdown document: a heading, the moments and one
// row per outcome with its probability, the upper tail and a bar scaled to the mode.
func DistributionTable(title string, dist domain.Distribution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	if dist.Len() == 0 {
		sb.WriteString("_empty distribution_\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "mean **%.4f**, stddev **%.4f**, range **%d..%d**\n\n",
		dist.Mean(), dist.StdDev(), dist.Min(), dist.Max())

	peak := 0.0
	dist.Each(func(_ int, p float64) {
		if p > peak {
			peak = p
		}
	})

	sb.WriteString("| Outcome | P | P(>=) | |\n")
	sb.WriteString("|---:|---:|---:|:---|\n")
	tail := 1.0
	dist.Each(func(v int, p float64) {
		fmt.Fprintf(&sb, "| %d | %.4f%% | %.2f%% | %s |\n", v, 100*p, 100*tail, bar(p, peak))
		tail -= p
	})
	return sb.String()
}

// SummaryTable formats simulation statistics as markdown.
func SummaryTable(title string, trials int, mean, stddev float64, lo, hi int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	sb.WriteString("| Trials | Mean | StdDev | Min | Max |\n")
	sb.WriteString("|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&sb, "| %d | %.4f | %.4f | %d | %d |\n", trials, mean, stddev, lo, hi)
	return sb.String()
}

func bar(p, peak float64) string {
	if peak <= 0 {
		return ""
	}
	n := int(p/peak*barWidth + 0.5)
	return strings.Repeat("█", n)
}
