package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/target/deploymentmanager"
	"github.com/nebari-dev/mysql-topology/pkg/target/opentofu"
	"github.com/nebari-dev/mysql-topology/pkg/target/prometheus"
	"github.com/nebari-dev/mysql-topology/pkg/telemetry"
)

var (
	// Global target registry
	registry *target.Registry

	verbose   bool
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "mysqltopo",
		Short: "Generate MySQL cluster topologies for Google Cloud",
		Long: `mysqltopo turns a small deployment file into the full set of Google Cloud
resources a replicated MySQL cluster needs: internal IP reservations, data disks
and compute instances, spread over the configured zones with exactly one master.

The result can be rendered as a Deployment Manager resource list or as an
OpenTofu configuration, and the OpenTofu rendering can be checked with a
downloaded tofu binary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger, err := newLogger(os.Stderr, logFormat, level)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
)

func init() {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	registry = target.NewRegistry()

	ctx := context.Background()
	if err := registry.Register(ctx, deploymentmanager.NewTarget()); err != nil {
		log.Fatalf("Failed to register deployment-manager target: %v", err)
	}
	if err := registry.Register(ctx, opentofu.NewTarget()); err != nil {
		log.Fatalf("Failed to register opentofu target: %v", err)
	}
	if err := registry.Register(ctx, prometheus.NewTarget()); err != nil {
		log.Fatalf("Failed to register prometheus target: %v", err)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logFormatAuto, "Log format: auto, json or text (auto picks text on a terminal)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		slog.Error("Failed to setup telemetry", "error", err)
		return 1
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command execution failed", "error", err)
		return 1
	}
	return 0
}
