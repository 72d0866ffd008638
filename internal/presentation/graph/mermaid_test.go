package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/dicetree/internal/presentation/graph"
	"github.com/aretw0/dicetree/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		expr     *dsl.Expr
		contains []string
	}{
		{
			name: "Leaf Shapes",
			expr: dsl.D(6).Plus(3),
			contains: []string{
				"n0{\"+\"}",
				"n1[/\"d6\"/]",
				"n2((\"3\"))",
				"n0 --> n1",
				"n0 --> n2",
			},
		},
		{
			name: "Pool Edges",
			expr: dsl.Of(3).D(6),
			contains: []string{
				"n0[(\"pool\")]",
				"n0 -- \"count\" --> n1",
				"n0 -- \"dice\" --> n2",
			},
		},
		{
			name: "Order Statistic",
			expr: dsl.Of(4).D(6).KeepHighest(3),
			contains: []string{
				"n0[\"keep highest\"]",
				"n0 -- \"of\" --> n1",
				"n0 -- \"n\" --> n3",
			},
		},
		{
			name: "Resampling",
			expr: dsl.D(6).Reroll(2).Le(2),
			contains: []string{
				"n0[[\"reroll le @2\"]]",
				"n0 -- \"compare\" --> n2",
			},
		},
		{
			name: "Comparison Escaping",
			expr: dsl.D(20).Ge(5),
			contains: []string{
				"n0{{\"max &ge;\"}}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tt.expr.MustBuild(), nil)
			assert.True(t, strings.HasPrefix(out, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	node := dsl.D(6).OnRoll(func(int) {}).Plus(1).MustBuild()

	out := graph.GenerateMermaid(node, &graph.Overlay{Bounds: true, Observed: true})
	assert.Contains(t, out, "n0{\"+ <br/> [2, 7]\"}")
	assert.Contains(t, out, "n1[/\"d6 <br/> [1, 6]\"/]")
	assert.Contains(t, out, "classDef observed")
	assert.Contains(t, out, "class n1 observed;")

	plain := graph.GenerateMermaid(node, nil)
	assert.NotContains(t, plain, "classDef")
	assert.NotContains(t, plain, "<br/>")
}

func TestGenerateMermaid_Nil(t *testing.T) {
	assert.Equal(t, "graph TD\n", graph.GenerateMermaid(nil, nil))
}
