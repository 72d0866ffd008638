package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/dsl"
	"github.com/aretw0/dicetree/pkg/registry"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := dicetree.New(
		dicetree.WithSeed(4),
		dicetree.WithLimits(domain.Limits{MaxPoolWidth: 8}),
	)
	require.NoError(t, err)
	return NewServer(eng)
}

func TestServer_RegistersTools(t *testing.T) {
	s := newTestServer(t)
	assert.ElementsMatch(t,
		[]string{"roll_dice", "simulate_dice", "dice_distribution", "describe_expression"},
		s.Tools(),
	)
}

func TestHandleRoll(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleRoll(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: "kind: keep_highest\nof: 2\ndice: {kind: die, sides: 20}\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "2d20kh", res.Expr)
	assert.True(t, res.Value >= 1 && res.Value <= 20)
	_, err = uuid.Parse(res.ID)
	assert.NoError(t, err)
}

func TestHandleSimulate(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSimulate(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: `{"kind": "die", "sides": 6}`,
		Trials:     600,
	})
	require.NoError(t, err)
	assert.Equal(t, 600, res.Summary.Trials)
	assert.Equal(t, 1, res.Summary.Min)
	assert.Equal(t, 6, res.Summary.Max)

	_, err = s.handleSimulate(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: `{"kind": "die", "sides": 6}`,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCount)

	_, err = s.handleSimulate(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: `{"kind": "die", "sides": 6}`,
		Trials:     DefaultMaxTrials + 1,
	})
	assert.ErrorIs(t, err, domain.ErrResourceLimit)
}

func TestHandleDistribution(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleDistribution(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: `{"kind": "pool", "count": 2, "dice": {"kind": "die", "sides": 4}}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Exact)
	assert.InDelta(t, 5.0, res.Mean, 1e-9)
	require.Len(t, res.Probabilities, 7)
	assert.Equal(t, 5, res.Probabilities[3].Outcome)
	assert.InDelta(t, 4.0/16, res.Probabilities[3].Probability, 1e-12)
}

func TestHandleDistribution_Fallback(t *testing.T) {
	s := newTestServer(t)
	args := ExpressionArgs{Expression: `{"kind": "pool", "count": 12, "dice": {"kind": "die", "sides": 6}}`}

	_, err := s.handleDistribution(context.Background(), mcp.CallToolRequest{}, args)
	assert.ErrorIs(t, err, domain.ErrResourceLimit)

	args.FallbackTrials = 1000
	res, err := s.handleDistribution(context.Background(), mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.False(t, res.Exact)
	assert.InDelta(t, 42.0, res.Mean, 1.5)
}

func TestHandleDescribe(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleDescribe(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{
		Expression: `{"kind": "explode", "dice": {"kind": "die", "sides": 6}, "compare": 6, "limit": 2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "d6x6@2", res.Expr)
	assert.Equal(t, "explode", res.Kind)
	assert.Equal(t, 1, res.Min)
	assert.Equal(t, 18, res.Max)
	assert.Contains(t, res.Mermaid, "explode eq @2")
}

func TestParseExpression_Errors(t *testing.T) {
	_, err := parseExpression(ExpressionArgs{})
	assert.EqualError(t, err, "expression is required")

	_, err = parseExpression(ExpressionArgs{Expression: `{"kind": "coin"}`})
	assert.ErrorContains(t, err, "invalid expression")
}

func TestPresetExpressions(t *testing.T) {
	presets := registry.NewRegistry()
	require.NoError(t, presets.Register("stats", dsl.Of(4).D(6).KeepHighest(3).MustBuild()))
	eng, err := dicetree.New(dicetree.WithSeed(4))
	require.NoError(t, err)
	s := NewServer(eng, WithPresets(presets))

	res, err := s.handleDescribe(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{Expression: "@stats"})
	require.NoError(t, err)
	assert.Equal(t, "4d6kh3", res.Expr)
	assert.Equal(t, 3, res.Min)
	assert.Equal(t, 18, res.Max)

	_, err = s.handleRoll(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{Expression: "@missing"})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = newTestServer(t).handleRoll(context.Background(), mcp.CallToolRequest{}, ExpressionArgs{Expression: "@stats"})
	assert.ErrorIs(t, err, registry.ErrNotFound)
}
