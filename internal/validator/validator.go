package validator

import (
	"fmt"
	"math"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
)

// ValidateExpression checks, without computing anything, that the exact distribution of
// node fits within lim. It reports the first violation found in depth-first order; the
// error wraps a *domain.LimitError.
func ValidateExpression(node expr.Node, lim domain.Limits) error {
	if node == nil {
		return &domain.TypeError{Where: "validate", Value: node}
	}
	lim = lim.Resolve()

	var failure error
	expr.Walk(node, func(n expr.Node, depth int) bool {
		if failure != nil {
			return false
		}
		if err := lim.CheckDepth(depth); err != nil {
			failure = fmt.Errorf("%s: %w", n, err)
			return false
		}
		if err := checkNode(n, lim); err != nil {
			failure = fmt.Errorf("%s: %w", n, err)
			return false
		}
		return true
	})
	return failure
}

func checkNode(n expr.Node, lim domain.Limits) error {
	switch x := n.(type) {
	case *expr.Pool:
		if err := lim.CheckPoolWidth(x.Count().Max()); err != nil {
			return err
		}
	case *expr.Order:
		if err := lim.CheckPoolWidth(x.Of().Max()); err != nil {
			return err
		}
		if err := lim.CheckWork(x.Work(EstimateSupport(x.Dice()))); err != nil {
			return err
		}
	}
	if est := EstimateSupport(n); est > float64(lim.MaxOutcomes) {
		return &domain.LimitError{Resource: "outcomes", Limit: lim.MaxOutcomes, Requested: clampInt(est)}
	}
	return nil
}

// EstimateSupport bounds the number of distinct outcomes of node from above.
func EstimateSupport(n expr.Node) float64 {
	span := float64(n.Max()) - float64(n.Min()) + 1
	switch x := n.(type) {
	case *expr.Constant:
		return 1
	case *expr.UniformRange:
		lo, hi, step := x.Bounds()
		return math.Floor(float64(hi-lo)/float64(step)) + 1
	case *expr.Arithmetic:
		est := 1.0
		for _, item := range x.Operands() {
			est *= EstimateSupport(item)
		}
		return math.Min(est, span)
	case *expr.Capped:
		return math.Min(EstimateSupport(x.Dice())+EstimateSupport(x.Compare()), span)
	case *expr.Reroll:
		return EstimateSupport(x.Dice())
	case *expr.Observed:
		return EstimateSupport(x.Inner())
	default:
		return span
	}
}

func clampInt(f float64) int {
	if f >= math.MaxInt {
		return math.MaxInt
	}
	return int(f)
}
