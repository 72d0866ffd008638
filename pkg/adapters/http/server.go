package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/registry"
	"github.com/aretw0/dicetree/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultMaxTrials caps the trials of one simulate or estimate request.
const DefaultMaxTrials = 1_000_000

const maxBodyBytes = 1 << 20

// Engine defines the dice operations served over HTTP.
type Engine interface {
	Roll(ctx context.Context, node expr.Node) (int, error)
	Simulate(ctx context.Context, node expr.Node, trials int) (domain.Batch, error)
	Distribution(ctx context.Context, node expr.Node) (domain.Distribution, error)
	Estimate(ctx context.Context, node expr.Node, trials int) (domain.Distribution, error)
}

// Server holds the handlers of the HTTP API.
type Server struct {
	Engine    Engine
	Streams   *StreamManager
	Logger    *slog.Logger
	MaxTrials int
	Presets   *registry.Registry

	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics exposes h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithPresets lets requests name an expression with "preset" instead of "expr".
func WithPresets(r *registry.Registry) Option {
	return func(s *Server) {
		s.Presets = r
	}
}

// WithMaxTrials overrides DefaultMaxTrials.
func WithMaxTrials(n int) Option {
	return func(s *Server) {
		s.MaxTrials = n
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:    engine,
		Streams:   NewStreamManager(),
		Logger:    slog.Default(),
		MaxTrials: DefaultMaxTrials,
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/roll", server.Roll)
	r.Post("/simulate", server.Simulate)
	r.Post("/distribution", server.Distribution)
	r.Get("/events", server.SubscribeEvents)
	r.Get("/presets", server.ListPresets)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Request is the body accepted by the roll, simulate and distribution endpoints.
// Expr holds an expression document in its JSON form.
type Request struct {
	Expr json.RawMessage `json:"expr,omitempty"`
	// Preset names a registered expression; it is mutually exclusive with Expr.
	Preset string `json:"preset,omitempty"`
	// Trials is the number of simulated trials (simulate only).
	Trials int `json:"trials,omitempty"`
	// Histogram adds the empirical distribution to a simulate response.
	Histogram bool `json:"histogram,omitempty"`
	// FallbackTrials lets distribution answer with an estimate when the exact
	// computation exceeds the server limits.
	FallbackTrials int `json:"fallback_trials,omitempty"`
	// Table broadcasts the roll to GET /events subscribers of that table.
	Table string `json:"table,omitempty"`
}

// RollResponse is returned by POST /roll.
type RollResponse struct {
	ID    string `json:"id"`
	Expr  string `json:"expr"`
	Value int    `json:"value"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Table string `json:"table,omitempty"`
}

// SimulateResponse is returned by POST /simulate.
type SimulateResponse struct {
	ID        string               `json:"id"`
	Expr      string               `json:"expr"`
	Summary   dicetree.Summary     `json:"summary"`
	Histogram *domain.Distribution `json:"histogram,omitempty"`
}

// DistributionResponse is returned by POST /distribution.
type DistributionResponse struct {
	ID           string              `json:"id"`
	Expr         string              `json:"expr"`
	Exact        bool                `json:"exact"`
	Trials       int                 `json:"trials,omitempty"`
	Mean         float64             `json:"mean"`
	StdDev       float64             `json:"stddev"`
	Min          int                 `json:"min"`
	Max          int                 `json:"max"`
	Distribution domain.Distribution `json:"distribution"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Resource  string `json:"resource,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Requested int    `json:"requested,omitempty"`
}

// Roll handles the POST /roll request.
func (s *Server) Roll(w http.ResponseWriter, r *http.Request) {
	req, node, ok := s.decode(w, r, "Roll")
	if !ok {
		return
	}
	v, err := s.Engine.Roll(r.Context(), node)
	if err != nil {
		s.fail(w, "Roll", err)
		return
	}

	resp := RollResponse{
		ID:    uuid.NewString(),
		Expr:  node.String(),
		Value: v,
		Min:   node.Min(),
		Max:   node.Max(),
		Table: req.Table,
	}
	if req.Table != "" {
		if payload, err := json.Marshal(resp); err == nil {
			s.Streams.Broadcast(req.Table, string(payload))
		}
	}
	s.write(w, "Roll", resp)
}

// Simulate handles the POST /simulate request.
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	req, node, ok := s.decode(w, r, "Simulate")
	if !ok {
		return
	}
	if err := s.checkTrials(req.Trials); err != nil {
		s.fail(w, "Simulate", err)
		return
	}
	batch, err := s.Engine.Simulate(r.Context(), node, req.Trials)
	if err != nil {
		s.fail(w, "Simulate", err)
		return
	}

	resp := SimulateResponse{
		ID:      uuid.NewString(),
		Expr:    node.String(),
		Summary: dicetree.Summarize(batch),
	}
	if req.Histogram {
		h := batch.Histogram()
		resp.Histogram = &h
	}
	s.write(w, "Simulate", resp)
}

// Distribution handles the POST /distribution request.
func (s *Server) Distribution(w http.ResponseWriter, r *http.Request) {
	req, node, ok := s.decode(w, r, "Distribution")
	if !ok {
		return
	}

	exact := true
	dist, err := s.Engine.Distribution(r.Context(), node)
	if err != nil && errors.Is(err, domain.ErrResourceLimit) && req.FallbackTrials > 0 {
		if terr := s.checkTrials(req.FallbackTrials); terr != nil {
			s.fail(w, "Distribution", terr)
			return
		}
		s.Logger.Debug("Distribution: falling back to simulation", "expr", node.String(), "trials", req.FallbackTrials)
		exact = false
		dist, err = s.Engine.Estimate(r.Context(), node, req.FallbackTrials)
	}
	if err != nil {
		s.fail(w, "Distribution", err)
		return
	}

	resp := DistributionResponse{
		ID:           uuid.NewString(),
		Expr:         node.String(),
		Exact:        exact,
		Mean:         dist.Mean(),
		StdDev:       dist.StdDev(),
		Min:          dist.Min(),
		Max:          dist.Max(),
		Distribution: dist,
	}
	if !exact {
		resp.Trials = req.FallbackTrials
	}
	s.write(w, "Distribution", resp)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, "GetHealth", map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	kinds := make([]string, len(schema.Kinds))
	copy(kinds, schema.Kinds)
	s.write(w, "GetInfo", map[string]any{
		"app":     "dicetree-http",
		"version": strings.TrimSpace(dicetree.Version),
		"kinds":   kinds,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string) (Request, expr.Node, bool) {
	var req Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Warn(op+": Invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return req, nil, false
	}
	if req.Preset != "" {
		if len(req.Expr) != 0 {
			writeError(w, http.StatusBadRequest, errors.New("expr and preset are mutually exclusive"))
			return req, nil, false
		}
		return s.preset(w, req, op)
	}
	if len(req.Expr) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("expr is required"))
		return req, nil, false
	}
	node, err := schema.Load(req.Expr)
	if err != nil {
		s.Logger.Warn(op+": Invalid expression", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return req, nil, false
	}
	return req, node, true
}

func (s *Server) preset(w http.ResponseWriter, req Request, op string) (Request, expr.Node, bool) {
	if s.Presets == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", registry.ErrNotFound, req.Preset))
		return req, nil, false
	}
	node, err := s.Presets.Lookup(req.Preset)
	if err != nil {
		s.Logger.Warn(op+": Unknown preset", "preset", req.Preset)
		writeError(w, http.StatusNotFound, err)
		return req, nil, false
	}
	return req, node, true
}

// PresetInfo describes one entry of GET /presets.
type PresetInfo struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// ListPresets handles the GET /presets request.
func (s *Server) ListPresets(w http.ResponseWriter, r *http.Request) {
	out := []PresetInfo{}
	if s.Presets != nil {
		for _, name := range s.Presets.Names() {
			node, err := s.Presets.Lookup(name)
			if err != nil {
				continue
			}
			out = append(out, PresetInfo{Name: name, Expr: node.String(), Min: node.Min(), Max: node.Max()})
		}
	}
	s.write(w, "ListPresets", out)
}

func (s *Server) checkTrials(n int) error {
	if n <= 0 {
		return domain.ErrInvalidCount
	}
	if s.MaxTrials > 0 && n > s.MaxTrials {
		return &domain.LimitError{Resource: "trials", Limit: s.MaxTrials, Requested: n}
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "error", err)
	} else {
		s.Logger.Warn(op+" rejected", "error", err)
	}
	writeError(w, status, err)
}

func (s *Server) write(w http.ResponseWriter, op string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error(op+" response encode failed", "error", err)
	}
}

// StatusFor maps an engine error onto an HTTP status: bad arguments and type mismatches
// are 400, exceeded resource limits 422 and everything else 500.
func StatusFor(err error) int {
	var validation *schema.ValidationError
	var aggregate *schema.AggregateError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrTypeMismatch),
		errors.As(err, &validation),
		errors.As(err, &aggregate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrResourceLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var limit *domain.LimitError
	if errors.As(err, &limit) {
		resp.Resource = limit.Resource
		resp.Limit = limit.Limit
		resp.Requested = limit.Requested
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
