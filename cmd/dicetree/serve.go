package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/dicetree"
	"github.com/aretw0/dicetree/internal/presentation/tui"
	httpAdapter "github.com/aretw0/dicetree/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the dicetree engine as a JSON API over HTTP.
Endpoints: GET /health, GET /info, POST /roll, POST /simulate, POST /distribution,
GET /events (roll feed per table) and GET /metrics (Prometheus).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := rt.Config
		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		maxTrials, _ := cmd.Flags().GetInt("max-trials")

		handler := httpAdapter.NewHandler(rt.Engine,
			httpAdapter.WithLogger(rt.Logger),
			httpAdapter.WithMetrics(rt.Metrics.Handler()),
			httpAdapter.WithMaxTrials(maxTrials),
			httpAdapter.WithPresets(rt.Presets),
		)
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if tui.IsInteractive(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout(), dicetree.Version)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			slog.Info("Starting dicetree server", "address", srv.Addr, "cache", cfg.Cache)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-cmd.Context().Done():
			slog.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				slog.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			slog.Info("dicetree server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Int("max-trials", httpAdapter.DefaultMaxTrials, "Largest trial count accepted per request")
}
