package main

import (
	"fmt"

	"github.com/aretw0/dicetree/internal/cli"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the distribution cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached distribution keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunCacheList(cmd.Context(), rt, printer(cmd))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached distribution",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		n, err := cli.RunCacheClear(cmd.Context(), rt)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached distributions\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
