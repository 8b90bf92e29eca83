// Package main - Entry point for the lease analysis server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"lease-analyzer/internal/app"
	"lease-analyzer/internal/config"
	"lease-analyzer/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.StringP("config", "c", "", "Path to config file (JSON or YAML)")
	addr := flag.String("addr", "", "Server address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, cfg, version); err != nil {
		logging.Sugar.Errorf("server failed: %v", err)
		logging.Sync()
		os.Exit(1)
	}
}
