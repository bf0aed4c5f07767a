package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/metrics"
	"github.com/nebari-dev/mysql-topology/pkg/status"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

// rendering is the outcome of running one deployment file through the
// parse, generate and render stages.
type rendering struct {
	source     string
	deployment *config.DeploymentContext
	topology   *topology.Config
	files      []target.File
}

// renderFile parses path, generates its topology and renders it with tgt.
// The attempt is recorded in rec.
func renderFile(ctx context.Context, rec *metrics.Recorder, tgt target.Target, path string, opts target.Options) (r *rendering, err error) {
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "cmd.renderFile")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", path),
		attribute.String("target", tgt.Name()),
	)

	start := time.Now()
	defer func() {
		rec.ObserveRender(tgt.Name(), time.Since(start), err)
	}()

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Parsing deployment file").
		WithStage(status.StageParse).
		WithField("file", path))

	dc, err := config.ParseConfig(ctx, path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	deployment := dc.Env.Deployment

	topo, err := topology.Generate(ctx, dc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.ObserveTopology(deployment, topo)
	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Generated topology").
		WithDeployment(deployment).
		WithStage(status.StageGenerate).
		WithField("resources", len(topo.Resources)))

	files, err := tgt.Render(ctx, dc, topo, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Rendered topology").
		WithDeployment(deployment).
		WithStage(status.StageRender).
		WithField("target", tgt.Name()).
		WithField("files", len(files)))

	return &rendering{source: path, deployment: dc, topology: topo, files: files}, nil
}

// layout maps every rendered file to its path under dir. A single rendering
// is written straight into dir; several are nested per deployment so targets
// with a fixed file name do not overwrite each other. Paths that would land
// outside dir are rejected.
func layout(dir string, renderings []*rendering) (map[string][]byte, error) {
	out := make(map[string][]byte)
	nested := len(renderings) > 1
	seen := make(map[string]string, len(renderings))

	for _, r := range renderings {
		name := r.deployment.Env.Deployment
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("deployment %q is defined in both %s and %s", name, prev, r.source)
		}
		seen[name] = r.source

		base := dir
		if nested {
			base = filepath.Join(dir, name)
		}
		for _, f := range r.files {
			path := filepath.Join(base, filepath.Clean(f.Path))
			if !within(dir, path) {
				return nil, fmt.Errorf("%s: output %s escapes %s", r.source, f.Path, dir)
			}
			out[path] = f.Data
		}
	}
	return out, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// writeOutputs writes files (keyed by full path) to appFs.
func writeOutputs(appFs afero.Fs, files map[string][]byte) error {
	for path, data := range files {
		if err := appFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := afero.WriteFile(appFs, path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
