// Package cmd provides the CLI commands for lease-analyzer.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lease-analyzer/internal/config"
	"lease-analyzer/internal/logging"
)

// Version is the CLI and server version.
const Version = "1.0.0"

var (
	cfgFile string
	verbose bool
	offline bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lease-analyzer",
	Short: "Judge whether a vehicle lease is a good deal",
	Long: `lease-analyzer compares the full cost of a lease, state taxes and fees
included, with the estimated market value of the vehicle and grades the deal.

Examples:
  lease-analyzer analyze "2023 BMW X5" --state CA --monthly 650 --upfront 3000 --months 36 --buyout 42000
  lease-analyzer value "Honda Civic" "2022 Tesla Model 3"
  lease-analyzer states
  lease-analyzer serve --addr :9090`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd == serveCmd)
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "skip external pricing providers")

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// initConfig loads configuration and sets up logging. Outside of serve,
// logs go to stderr at warn level so stdout carries only results.
func initConfig(serving bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if offline {
		cfg.Pricing.CarAPI.Enabled = false
	}
	config.Set(cfg)

	logCfg := cfg.Logging
	switch {
	case verbose:
		logCfg.Level = "debug"
	case !serving:
		logCfg.Level = "warn"
	}
	if !serving {
		logCfg.Output = "stderr"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	return nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lease-analyzer version %s\n", Version)
	},
}
