package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/dicetree"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dicetree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dicetree version %s\n", strings.TrimSpace(dicetree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
