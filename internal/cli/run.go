package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/internal/presentation/graph"
	"github.com/aretw0/dicetree/internal/presentation/tui"
	"github.com/aretw0/dicetree/internal/validator"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/schema"
)

// Printer writes command results either as JSON or as (optionally rendered) markdown.
type Printer struct {
	Out    io.Writer
	JSON   bool
	Render tui.Renderer
}

func (p Printer) json(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p Printer) markdown(md string) error {
	render := p.Render
	if render == nil {
		render = tui.Plain
	}
	out, err := render(md)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	_, err = io.WriteString(p.Out, out)
	return err
}

// RollResult is the JSON output of the roll command.
type RollResult struct {
	Expr   string `json:"expr"`
	Values []int  `json:"values"`
}

// RunRoll rolls node times times and prints one value per line.
func RunRoll(ctx context.Context, eng *dicetree.Engine, node expr.Node, times int, p Printer) error {
	if times <= 0 {
		return domain.ErrInvalidCount
	}
	res := RollResult{Expr: node.String(), Values: make([]int, 0, times)}
	for i := 0; i < times; i++ {
		v, err := eng.Roll(ctx, node)
		if err != nil {
			return err
		}
		res.Values = append(res.Values, v)
	}

	if p.JSON {
		return p.json(res)
	}
	for _, v := range res.Values {
		if _, err := fmt.Fprintln(p.Out, v); err != nil {
			return err
		}
	}
	return nil
}

// SimulateResult is the JSON output of the sim command.
type SimulateResult struct {
	Expr      string               `json:"expr"`
	Summary   dicetree.Summary     `json:"summary"`
	Histogram *domain.Distribution `json:"histogram,omitempty"`
}

// RunSimulate simulates node and prints its summary, plus the empirical distribution
// when histogram is set.
func RunSimulate(ctx context.Context, eng *dicetree.Engine, node expr.Node, trials int, histogram bool, p Printer) error {
	batch, err := eng.Simulate(ctx, node, trials)
	if err != nil {
		return err
	}
	res := SimulateResult{Expr: node.String(), Summary: eng.Summarize(batch)}
	if histogram {
		h := batch.Histogram()
		res.Histogram = &h
	}

	if p.JSON {
		return p.json(res)
	}
	s := res.Summary
	md := tui.SummaryTable(res.Expr, s.Trials, s.Mean, s.StdDev, s.Min, s.Max)
	if res.Histogram != nil {
		md += "\n" + tui.DistributionTable("Observed frequencies", *res.Histogram)
	}
	return p.markdown(md)
}

// DistributionResult is the JSON output of the dist command.
type DistributionResult struct {
	Expr         string              `json:"expr"`
	Exact        bool                `json:"exact"`
	Mean         float64             `json:"mean"`
	StdDev       float64             `json:"stddev"`
	Distribution domain.Distribution `json:"distribution"`
}

// RunDistribution prints the exact distribution of node. When the expression exceeds the
// engine limits and fallback is positive, it prints an estimate from fallback trials.
func RunDistribution(ctx context.Context, eng *dicetree.Engine, node expr.Node, fallback int, p Printer) error {
	exact := true
	dist, err := eng.Distribution(ctx, node)
	if err != nil && errors.Is(err, domain.ErrResourceLimit) && fallback > 0 {
		exact = false
		dist, err = eng.Estimate(ctx, node, fallback)
	}
	if err != nil {
		return err
	}

	res := DistributionResult{
		Expr:         node.String(),
		Exact:        exact,
		Mean:         dist.Mean(),
		StdDev:       dist.StdDev(),
		Distribution: dist,
	}
	if p.JSON {
		return p.json(res)
	}
	title := res.Expr
	if !exact {
		title += fmt.Sprintf(" (estimated from %d trials)", fallback)
	}
	return p.markdown(tui.DistributionTable(title, dist))
}

// ValidateResult is the JSON output of the validate command.
type ValidateResult struct {
	Expr     string  `json:"expr"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Support  float64 `json:"estimated_support"`
	Exact    bool    `json:"exact_supported"`
	Reason   string  `json:"reason,omitempty"`
	Document any     `json:"document,omitempty"`
}

// RunValidate reports the bounds of node and whether its exact distribution fits the
// engine limits. The canonical document is included in JSON output.
func RunValidate(eng *dicetree.Engine, node expr.Node, p Printer) error {
	res := ValidateResult{
		Expr:    node.String(),
		Min:     node.Min(),
		Max:     node.Max(),
		Support: validator.EstimateSupport(node),
		Exact:   true,
	}
	if err := eng.Check(node); err != nil {
		res.Exact = false
		res.Reason = err.Error()
	}

	if p.JSON {
		doc, err := schema.Encode(node)
		if err != nil {
			return err
		}
		res.Document = doc
		return p.json(res)
	}

	_, err := fmt.Fprintf(p.Out, "%s\n  bounds: [%d, %d]\n  estimated support: %.0f\n", res.Expr, res.Min, res.Max, res.Support)
	if err != nil {
		return err
	}
	if res.Exact {
		_, err = fmt.Fprintln(p.Out, "  exact distribution: supported")
	} else {
		_, err = fmt.Fprintf(p.Out, "  exact distribution: too large (%s); use simulation\n", res.Reason)
	}
	return err
}

// RunGraph prints the Mermaid flowchart of node.
func RunGraph(node expr.Node, bounds bool, out io.Writer) error {
	_, err := io.WriteString(out, graph.GenerateMermaid(node, &graph.Overlay{Bounds: bounds, Observed: true}))
	return err
}

// RunCacheList prints the cached keys.
func RunCacheList(ctx context.Context, rt *Runtime, p Printer) error {
	if rt.Cache == nil {
		return errors.New("no distribution cache configured")
	}
	keys, err := rt.Cache.List(ctx)
	if err != nil {
		return err
	}
	if p.JSON {
		return p.json(keys)
	}
	for _, k := range keys {
		if _, err := fmt.Fprintln(p.Out, k); err != nil {
			return err
		}
	}
	return nil
}

// RunCacheClear deletes every cached distribution and returns how many were removed.
func RunCacheClear(ctx context.Context, rt *Runtime) (int, error) {
	if rt.Cache == nil {
		return 0, errors.New("no distribution cache configured")
	}
	keys, err := rt.Cache.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := rt.Cache.Delete(ctx, k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

// PresetResult describes one preset in the presets listing.
type PresetResult struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// RunPresets lists the loaded presets with their bounds.
func RunPresets(rt *Runtime, p Printer) error {
	names := rt.Presets.Names()
	out := make([]PresetResult, 0, len(names))
	for _, name := range names {
		node, err := rt.Presets.Lookup(name)
		if err != nil {
			return err
		}
		out = append(out, PresetResult{Name: name, Expr: node.String(), Min: node.Min(), Max: node.Max()})
	}
	if p.JSON {
		return p.json(out)
	}
	if len(out) == 0 {
		_, err := fmt.Fprintln(p.Out, "no presets loaded")
		return err
	}
	md := "| preset | expression | range |\n|---|---|---|\n"
	for _, r := range out {
		md += fmt.Sprintf("| @%s | `%s` | %d..%d |\n", r.Name, r.Expr, r.Min, r.Max)
	}
	return p.markdown(md)
}
