package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/nebari-dev/mysql-topology/pkg/tofu"
)

const (
	version = "1.0.0"
	commit  = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "cmd.version")
	defer span.End()

	slog.Debug("Version command executed", "version", version, "commit", commit)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mysqltopo\n")
	fmt.Fprintf(out, "Version: %s\n", version)
	fmt.Fprintf(out, "Commit: %s\n", commit)
	fmt.Fprintf(out, "OpenTofu version: %s\n", tofu.DefaultVersion)
	fmt.Fprintf(out, "Registered targets: %v\n", registry.List(ctx))

	return nil
}
