package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/internal/presentation/graph"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/registry"
	"github.com/aretw0/dicetree/pkg/schema"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines the dice operations exposed as MCP tools.
type Engine interface {
	Roll(ctx context.Context, node expr.Node) (int, error)
	Simulate(ctx context.Context, node expr.Node, trials int) (domain.Batch, error)
	Distribution(ctx context.Context, node expr.Node) (domain.Distribution, error)
	Estimate(ctx context.Context, node expr.Node, trials int) (domain.Distribution, error)
}

// DefaultMaxTrials caps the trials of one simulate call.
const DefaultMaxTrials = 1_000_000

// ExpressionArgs are the arguments shared by every tool.
type ExpressionArgs struct {
	Expression     string `json:"expression"`
	Trials         int    `json:"trials,omitempty"`
	FallbackTrials int    `json:"fallback_trials,omitempty"`
}

// RollResult is returned by roll_dice.
type RollResult struct {
	ID    string `json:"id" jsonschema_description:"Unique identifier of this roll"`
	Expr  string `json:"expr" jsonschema_description:"Canonical description of the expression"`
	Value int    `json:"value" jsonschema_description:"The rolled value"`
}

// SimulateResult is returned by simulate_dice.
type SimulateResult struct {
	ID      string           `json:"id"`
	Expr    string           `json:"expr"`
	Summary dicetree.Summary `json:"summary" jsonschema_description:"Statistics over the simulated trials"`
}

// DistributionResult is returned by dice_distribution.
type DistributionResult struct {
	ID            string         `json:"id"`
	Expr          string         `json:"expr"`
	Exact         bool           `json:"exact" jsonschema_description:"False when the result was estimated by simulation"`
	Mean          float64        `json:"mean"`
	StdDev        float64        `json:"stddev"`
	Probabilities []domain.Entry `json:"probabilities" jsonschema_description:"Outcome probabilities in ascending outcome order"`
}

// DescribeResult is returned by describe_expression.
type DescribeResult struct {
	Expr    string `json:"expr"`
	Kind    string `json:"kind"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart of the expression tree"`
}

// Server wraps the dicetree Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	maxTrials int
	presets   *registry.Registry
	tools     []string
}

// Option configures the Server.
type Option func(*Server)

// WithPresets lets tools accept "@name" for a registered expression.
func WithPresets(r *registry.Registry) Option {
	return func(s *Server) {
		s.presets = r
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("dicetree-mcp", strings.TrimSpace(dicetree.Version)),
		maxTrials: DefaultMaxTrials,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Tools lists the registered tool names.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

const expressionHelp = "Expression document in JSON or YAML, e.g. " +
	`{"kind": "keep_highest", "of": 4, "dice": {"kind": "die", "sides": 6}, "n": 3}` +
	`, or "@name" for a preset listed by dicetree://presets`

func (s *Server) registerTools() {
	// TOOL: roll_dice
	s.addTool(mcp.NewTool("roll_dice",
		mcp.WithDescription("Roll a dice expression once."),
		mcp.WithString("expression", mcp.Required(), mcp.Description(expressionHelp)),
		mcp.WithOutputSchema[RollResult](),
	), mcp.NewStructuredToolHandler(s.handleRoll))

	// TOOL: simulate_dice
	s.addTool(mcp.NewTool("simulate_dice",
		mcp.WithDescription("Roll a dice expression many times and summarize the outcomes."),
		mcp.WithString("expression", mcp.Required(), mcp.Description(expressionHelp)),
		mcp.WithNumber("trials", mcp.Required(), mcp.Description("Number of independent trials")),
		mcp.WithOutputSchema[SimulateResult](),
	), mcp.NewStructuredToolHandler(s.handleSimulate))

	// TOOL: dice_distribution
	s.addTool(mcp.NewTool("dice_distribution",
		mcp.WithDescription("Compute the exact probability distribution of a dice expression."),
		mcp.WithString("expression", mcp.Required(), mcp.Description(expressionHelp)),
		mcp.WithNumber("fallback_trials", mcp.Description("Estimate with this many trials when the exact computation is too large (optional)")),
		mcp.WithOutputSchema[DistributionResult](),
	), mcp.NewStructuredToolHandler(s.handleDistribution))

	// TOOL: describe_expression
	s.addTool(mcp.NewTool("describe_expression",
		mcp.WithDescription("Validate an expression and return its canonical description, bounds and tree."),
		mcp.WithString("expression", mcp.Required(), mcp.Description(expressionHelp)),
		mcp.WithOutputSchema[DescribeResult](),
	), mcp.NewStructuredToolHandler(s.handleDescribe))
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) parseExpression(args ExpressionArgs) (expr.Node, error) {
	if name, ok := strings.CutPrefix(strings.TrimSpace(args.Expression), "@"); ok {
		if s.presets == nil {
			return nil, fmt.Errorf("%w: %s", registry.ErrNotFound, name)
		}
		return s.presets.Lookup(name)
	}
	return parseExpression(args)
}

func parseExpression(args ExpressionArgs) (expr.Node, error) {
	if strings.TrimSpace(args.Expression) == "" {
		return nil, errors.New("expression is required")
	}
	node, err := schema.Load([]byte(args.Expression))
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	return node, nil
}

// Handler methods for structured tools

func (s *Server) handleRoll(ctx context.Context, request mcp.CallToolRequest, args ExpressionArgs) (RollResult, error) {
	node, err := s.parseExpression(args)
	if err != nil {
		return RollResult{}, err
	}
	v, err := s.engine.Roll(ctx, node)
	if err != nil {
		return RollResult{}, fmt.Errorf("roll failed: %w", err)
	}
	return RollResult{ID: uuid.NewString(), Expr: node.String(), Value: v}, nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args ExpressionArgs) (SimulateResult, error) {
	node, err := s.parseExpression(args)
	if err != nil {
		return SimulateResult{}, err
	}
	if err := s.checkTrials(args.Trials); err != nil {
		return SimulateResult{}, err
	}
	batch, err := s.engine.Simulate(ctx, node, args.Trials)
	if err != nil {
		return SimulateResult{}, fmt.Errorf("simulate failed: %w", err)
	}
	return SimulateResult{
		ID:      uuid.NewString(),
		Expr:    node.String(),
		Summary: dicetree.Summarize(batch),
	}, nil
}

func (s *Server) handleDistribution(ctx context.Context, request mcp.CallToolRequest, args ExpressionArgs) (DistributionResult, error) {
	node, err := s.parseExpression(args)
	if err != nil {
		return DistributionResult{}, err
	}

	exact := true
	dist, err := s.engine.Distribution(ctx, node)
	if err != nil && errors.Is(err, domain.ErrResourceLimit) && args.FallbackTrials > 0 {
		if terr := s.checkTrials(args.FallbackTrials); terr != nil {
			return DistributionResult{}, terr
		}
		slog.Debug("MCP Distribution: falling back to simulation", "expr", node.String())
		exact = false
		dist, err = s.engine.Estimate(ctx, node, args.FallbackTrials)
	}
	if err != nil {
		return DistributionResult{}, fmt.Errorf("distribution failed: %w", err)
	}

	return DistributionResult{
		ID:            uuid.NewString(),
		Expr:          node.String(),
		Exact:         exact,
		Mean:          dist.Mean(),
		StdDev:        dist.StdDev(),
		Probabilities: dist.Entries(),
	}, nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args ExpressionArgs) (DescribeResult, error) {
	node, err := s.parseExpression(args)
	if err != nil {
		return DescribeResult{}, err
	}
	return DescribeResult{
		Expr:    node.String(),
		Kind:    node.Kind().String(),
		Min:     node.Min(),
		Max:     node.Max(),
		Mermaid: graph.GenerateMermaid(node, nil),
	}, nil
}

func (s *Server) checkTrials(n int) error {
	if n <= 0 {
		return domain.ErrInvalidCount
	}
	if n > s.maxTrials {
		return &domain.LimitError{Resource: "trials", Limit: s.maxTrials, Requested: n}
	}
	return nil
}

func (s *Server) registerResources() {
	// EXPOSE: dicetree://kinds
	s.mcpServer.AddResource(mcp.NewResource("dicetree://kinds", "Expression Document Kinds",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(schema.Kinds)
		if err != nil {
			return nil, fmt.Errorf("failed to encode kinds: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "dicetree://kinds",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: dicetree://presets
	s.mcpServer.AddResource(mcp.NewResource("dicetree://presets", "Expression Presets",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		presets := map[string]string{}
		if s.presets != nil {
			for _, name := range s.presets.Names() {
				if node, err := s.presets.Lookup(name); err == nil {
					presets[name] = node.String()
				}
			}
		}
		jsonBytes, err := json.Marshal(presets)
		if err != nil {
			return nil, fmt.Errorf("failed to encode presets: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "dicetree://presets",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
