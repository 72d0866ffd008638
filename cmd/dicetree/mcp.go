package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/dicetree/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the dicetree engine as an MCP Server.
This allows AI agents to roll dice and query probabilities through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := mcp.NewServer(rt.Engine, mcp.WithPresets(rt.Presets))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			slog.Info("Starting dicetree MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			slog.Info("Starting dicetree MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(cmd.Context(), port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
