package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/metrics"
	"github.com/nebari-dev/mysql-topology/pkg/status"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/target/opentofu"
	"github.com/nebari-dev/mysql-topology/pkg/tofu"
)

var (
	planConfigFile string
	planRun        bool

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Check the OpenTofu rendering with tofu",
		Long: `Render a deployment file for OpenTofu and check it with a downloaded tofu
binary: tofu init followed by tofu validate. With --plan a tofu plan is run as
well, which needs Google Cloud credentials for the project.

Nothing is ever applied.`,
		RunE: runPlan,
	}
)

func init() {
	planCmd.Flags().StringVarP(&planConfigFile, "file", "f", "", "Path to the deployment file (required)")
	planCmd.Flags().BoolVar(&planRun, "plan", false, "Also run tofu plan")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := planCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "cmd.plan")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", planConfigFile),
		attribute.Bool("plan", planRun),
	)

	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler(slog.Default()))
	defer cleanupStatus()

	defer func() {
		if ctx.Err() == context.Canceled {
			slog.Warn("Plan interrupted by user")
		}
	}()

	tgt, err := registry.Get(ctx, opentofu.Name)
	if err != nil {
		span.RecordError(err)
		return err
	}

	r, err := renderFile(ctx, metrics.NewRecorder(), tgt, planConfigFile, target.Options{})
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to render deployment file", "error", err, "file", planConfigFile)
		return err
	}

	files := make(map[string][]byte, len(r.files))
	for _, f := range r.files {
		files[f.Path] = f.Data
	}

	ws, err := tofu.Setup(ctx, files)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			slog.Warn("Failed to remove tofu working directory", "dir", ws.Dir, "error", err)
		}
	}()

	if err := ws.Init(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	if err := ws.Validate(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	status.Send(ctx, status.NewUpdate(status.LevelSuccess, "OpenTofu configuration is valid").
		WithDeployment(r.deployment.Env.Deployment).
		WithStage(status.StageTofu))

	if !planRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ OpenTofu configuration for %s is valid\n", r.deployment.Env.Deployment)
		return nil
	}

	changes, err := ws.Plan(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Bool("plan.changes", changes))

	if changes {
		fmt.Fprintf(cmd.OutOrStdout(), "Plan for %s has changes (%d resources generated)\n",
			r.deployment.Env.Deployment, len(r.topology.Resources))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Plan for %s has no changes\n", r.deployment.Env.Deployment)
	}
	return nil
}
