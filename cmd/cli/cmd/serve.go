// Package cmd - serve command
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lease-analyzer/internal/app"
	"lease-analyzer/internal/config"
	"lease-analyzer/internal/logging"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lease analysis HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		defer logging.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.Serve(ctx, cfg, Version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "server address (overrides config)")
}
