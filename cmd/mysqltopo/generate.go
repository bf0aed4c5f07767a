package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/nebari-dev/mysql-topology/pkg/metrics"
	"github.com/nebari-dev/mysql-topology/pkg/status"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/target/deploymentmanager"
)

// stdoutOutput is the --output value that prints instead of writing files.
const stdoutOutput = "-"

var (
	generateFiles   []string
	generateTarget  string
	generateFormat  string
	generateOutput  string
	generateMetrics string

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate cluster resources from deployment files",
		Long: `Generate the address, disk and instance resources for each deployment file
and render them for the selected target.

Several files may be given with repeated -f flags; they are processed
concurrently and each deployment's files are written to its own
subdirectory of --output. Use --output - to print a single rendering to
stdout.`,
		RunE: runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringArrayVarP(&generateFiles, "file", "f", nil, "Path to a deployment file (repeatable, required)")
	generateCmd.Flags().StringVarP(&generateTarget, "target", "t", deploymentmanager.Name, "Target engine (deployment-manager, opentofu, prometheus)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "", "Output format; defaults to the target's first format")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", ".", "Output directory, or - for stdout")
	generateCmd.Flags().StringVar(&generateMetrics, "metrics-file", "", "Write generation metrics to this file (node exporter textfile format)")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := generateCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "cmd.generate")
	defer span.End()

	span.SetAttributes(
		attribute.StringSlice("config.files", generateFiles),
		attribute.String("target", generateTarget),
		attribute.String("output", generateOutput),
	)

	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler(slog.Default()))
	defer cleanupStatus()

	tgt, err := registry.Get(ctx, generateTarget)
	if err != nil {
		span.RecordError(err)
		return err
	}

	rec := metrics.NewRecorder()
	if generateMetrics != "" {
		// Written on failure too, so a broken deployment file shows up in monitoring.
		defer func() {
			if err := rec.WriteTextfile(generateMetrics); err != nil {
				slog.Warn("Failed to write metrics", "error", err)
			}
		}()
	}

	renderings, err := renderAll(ctx, rec, tgt, generateFiles, target.Options{Format: generateFormat})
	if err != nil {
		span.RecordError(err)
		slog.Error("Generation failed", "error", err)
		return err
	}

	if generateOutput == stdoutOutput {
		return printRendering(cmd, renderings)
	}

	files, err := layout(generateOutput, renderings)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := writeOutputs(afero.NewOsFs(), files); err != nil {
		span.RecordError(err)
		return err
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		status.Send(ctx, status.NewUpdate(status.LevelSuccess, "Wrote output").
			WithStage(status.StageWrite).
			WithField("path", p))
	}

	slog.Info("Generation completed", "deployments", len(renderings), "files", len(files))
	return nil
}

// renderAll renders every file concurrently. Results keep the order of paths.
func renderAll(ctx context.Context, rec *metrics.Recorder, tgt target.Target, paths []string, opts target.Options) ([]*rendering, error) {
	renderings := make([]*rendering, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			r, err := renderFile(gctx, rec, tgt, path, opts)
			if err != nil {
				return err
			}
			renderings[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return renderings, nil
}

func printRendering(cmd *cobra.Command, renderings []*rendering) error {
	if len(renderings) != 1 || len(renderings[0].files) != 1 {
		return fmt.Errorf("--output %s needs exactly one deployment file rendering to one file", stdoutOutput)
	}
	_, err := cmd.OutOrStdout().Write(renderings[0].files[0].Data)
	return err
}
