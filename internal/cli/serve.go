package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clinicpulse/clinicpulse/internal/config"
	"github.com/clinicpulse/clinicpulse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard backend server",
	Long: `Run the HTTP backend: Genie chat endpoints, the credential-injecting
Databricks proxy, warehouse operations and the chart store.

The server listens on CLINICPULSE_PORT (default 3001) and shuts down
gracefully on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srvLogger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg, srvLogger)
}
