package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/naming"
)

var (
	validateConfigFile string

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate a deployment file",
		Long: `Validate a deployment file without generating any resources.
All problems in the file are reported at once. On success a summary of the
cluster that would be generated is printed.

Besides required fields, validation checks that env.deployment is a valid
Compute Engine name (lowercase letters, digits and hyphens, starting with a
letter) and that every zone lies in the region of the first zone, because the
internal addresses are reserved in that region only.`,
		RunE: runValidate,
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "file", "f", "", "Path to the deployment file (required)")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := validateCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "cmd.validate")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", validateConfigFile))

	slog.Info("Validating deployment file", "config_file", validateConfigFile)

	dc, err := config.ParseConfig(ctx, validateConfigFile)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to parse deployment file", "error", err, "file", validateConfigFile)
		return err
	}
	if err := dc.Validate(); err != nil {
		span.RecordError(err)
		slog.Error("Deployment file is invalid", "error", err, "file", validateConfigFile)
		return err
	}

	printSummary(cmd.OutOrStdout(), dc)
	return nil
}

func printSummary(w io.Writer, dc *config.DeploymentContext) {
	p := dc.Properties
	fmt.Fprintf(w, "✓ Deployment file is valid\n")
	fmt.Fprintf(w, "  Deployment: %s\n", dc.Env.Deployment)
	fmt.Fprintf(w, "  Project: %s\n", dc.Env.Project)
	fmt.Fprintf(w, "  Region: %s\n", naming.Region(p.Zones[0]))
	fmt.Fprintf(w, "  Zones: %s\n", strings.Join(p.Zones, ", "))
	fmt.Fprintf(w, "  Nodes: %d (%d per zone)\n", p.NodeCount(), p.NodesPerZone)
	fmt.Fprintf(w, "  Data disks: %d x %dGB %s\n", p.DiskCount(), p.DataDiskSize, p.DataDiskType)
	if p.NodeCount() > 0 {
		fmt.Fprintf(w, "  Master: %s\n", naming.Instance(dc.Env.Deployment, 0))
	}
}
