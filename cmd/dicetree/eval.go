package main

import (
	"github.com/aretw0/dicetree/internal/cli"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/spf13/cobra"
)

const expressionHelp = `The expression is a YAML or JSON document, a path to one, "-" to read it from stdin,
or "@name" for a preset from presets_dir.`

// withExpression builds the runtime, resolves arg and runs fn.
func withExpression(cmd *cobra.Command, arg string, fn func(rt *cli.Runtime, node expr.Node) error) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	node, err := rt.Expression(arg, cmd.InOrStdin())
	if err != nil {
		return err
	}
	return fn(rt, node)
}

var rollCmd = &cobra.Command{
	Use:   "roll <expression>",
	Short: "Roll an expression",
	Long:  "Rolls an expression and prints the results, one per line.\n" + expressionHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		times, _ := cmd.Flags().GetInt("times")
		return withExpression(cmd, args[0], func(rt *cli.Runtime, node expr.Node) error {
			return cli.RunRoll(cmd.Context(), rt.Engine, node, times, printer(cmd))
		})
	},
}

var simCmd = &cobra.Command{
	Use:   "sim <expression>",
	Short: "Simulate an expression over many trials",
	Long:  "Rolls an expression many times and summarizes the outcomes.\n" + expressionHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trials, _ := cmd.Flags().GetInt("trials")
		histogram, _ := cmd.Flags().GetBool("histogram")
		return withExpression(cmd, args[0], func(rt *cli.Runtime, node expr.Node) error {
			return cli.RunSimulate(cmd.Context(), rt.Engine, node, trials, histogram, printer(cmd))
		})
	},
}

var distCmd = &cobra.Command{
	Use:   "dist <expression>",
	Short: "Compute the exact distribution of an expression",
	Long: `Computes the exact probability distribution of an expression.
Expressions too large for the configured limits are rejected before any work is done;
pass --fallback to estimate them by simulation instead.
` + expressionHelp,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fallback, _ := cmd.Flags().GetInt("fallback")
		return withExpression(cmd, args[0], func(rt *cli.Runtime, node expr.Node) error {
			return cli.RunDistribution(cmd.Context(), rt.Engine, node, fallback, printer(cmd))
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <expression>",
	Short: "Check an expression document",
	Long: `Builds the expression, prints its bounds and reports whether its exact distribution fits the configured limits.
` + expressionHelp,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withExpression(cmd, args[0], func(rt *cli.Runtime, node expr.Node) error {
			return cli.RunValidate(rt.Engine, node, printer(cmd))
		})
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <expression>",
	Short: "Export the expression tree visualization",
	Long:  "Outputs a Mermaid diagram (graph TD) of the expression tree.\n" + expressionHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bounds, _ := cmd.Flags().GetBool("bounds")
		return withExpression(cmd, args[0], func(_ *cli.Runtime, node expr.Node) error {
			return cli.RunGraph(node, bounds, cmd.OutOrStdout())
		})
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the named expressions loaded from presets_dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunPresets(rt, printer(cmd))
	},
}

func init() {
	rollCmd.Flags().IntP("times", "n", 1, "Number of rolls")
	simCmd.Flags().IntP("trials", "t", 10000, "Number of trials")
	simCmd.Flags().Bool("histogram", false, "Include the observed frequencies")
	distCmd.Flags().Int("fallback", 0, "Trials used to estimate expressions that exceed the limits")
	graphCmd.Flags().Bool("bounds", false, "Annotate nodes with their bounds")

	rootCmd.AddCommand(rollCmd, simCmd, distCmd, validateCmd, graphCmd, presetsCmd)
}
