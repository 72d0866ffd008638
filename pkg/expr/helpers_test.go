package expr_test

import (
	"testing"

	"github.com/aretw0/dicetree/pkg/adapters/random"
	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/stretchr/testify/require"
)

func cst(v int) expr.Node { return expr.NewConstant(v) }

func die(t *testing.T, sides int) expr.Node {
	t.Helper()
	d, err := expr.NewDie(sides)
	require.NoError(t, err)
	return d
}

// mustNode unwraps a constructor result in table setups.
func mustNode(node expr.Node, err error) expr.Node {
	if err != nil {
		panic(err)
	}
	return node
}

func seeded(seed int64) domain.Source { return random.New(seed) }

func exact(t *testing.T, node expr.Node) domain.Distribution {
	t.Helper()
	d, err := node.Distribution(domain.DefaultLimits())
	require.NoError(t, err)
	return d
}

func d(sides int) expr.Node { return mustNode(expr.NewDie(sides)) }
