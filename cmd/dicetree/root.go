package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/dicetree/internal/cli"
	"github.com/aretw0/dicetree/internal/config"
	"github.com/aretw0/dicetree/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dicetree",
	Short: "dicetree rolls, simulates and analyzes dice expressions",
	Long: `dicetree evaluates dice expressions described as YAML or JSON documents.
It rolls them, simulates them over many trials and computes their exact probability
distributions, caching results in memory, SQLite or Redis.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context.
func Execute() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	flags.Int64("seed", 0, "Seed the random source for reproducible results")
	flags.Int("max-pool-width", 0, "Largest pool enumerated exactly")
	flags.Int("max-outcomes", 0, "Largest distribution support computed exactly")
	flags.String("cache", "", "Distribution cache: none, memory, sqlite or redis")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Bool("debug", false, "Shortcut for --log-level=debug")
	flags.Bool("json", false, "Print machine-readable JSON")
	flags.Bool("plain", false, "Disable rich terminal rendering")
}

// loadConfig merges the configuration file, DICETREE_* variables and flags, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Seed = &seed
	}
	if flags.Changed("max-pool-width") {
		cfg.MaxPoolWidth, _ = flags.GetInt("max-pool-width")
	}
	if flags.Changed("max-outcomes") {
		cfg.MaxOutcomes, _ = flags.GetInt("max-outcomes")
	}
	if flags.Changed("cache") {
		cfg.Cache, _ = flags.GetString("cache")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// setup builds the runtime shared by every evaluating command.
func setup(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, _ := cfg.Level()
	logger := cli.CreateLogger(level, cfg.LogFormat, false)
	slog.SetDefault(logger)
	return cli.NewRuntime(cfg, logger)
}

// printer chooses JSON, rendered markdown or plain markdown for stdout.
func printer(cmd *cobra.Command) cli.Printer {
	jsonOut, _ := cmd.Flags().GetBool("json")
	plain, _ := cmd.Flags().GetBool("plain")
	p := cli.Printer{Out: cmd.OutOrStdout(), JSON: jsonOut}
	if !jsonOut && !plain && tui.IsInteractive(os.Stdout) {
		p.Render = tui.NewRenderer()
	}
	return p
}
