// Package deploymentmanager renders a topology as a Deployment Manager
// resource list: a document with a single "resources" key whose entries keep
// the $(ref.name.field) cross-reference tokens for the engine to resolve.
package deploymentmanager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

const (
	// Name identifies the target on the command line.
	Name = "deployment-manager"

	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Target implements target.Target for Deployment Manager.
type Target struct{}

// NewTarget creates a new Deployment Manager target
func NewTarget() *Target {
	return &Target{}
}

func (t *Target) Name() string {
	return Name
}

func (t *Target) Formats() []string {
	return []string{FormatYAML, FormatJSON}
}

// Render encodes the resource list into <deployment>.<format>.
func (t *Target) Render(ctx context.Context, dc *config.DeploymentContext, topo *topology.Config, opts target.Options) ([]target.File, error) {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "deploymentmanager.Render")
	defer span.End()

	format, err := target.ResolveFormat(t, opts.Format)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("deployment", dc.Env.Deployment),
		attribute.String("format", format),
		attribute.Int("resources", len(topo.Resources)),
	)

	data, err := Encode(topo, format)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return []target.File{{Path: dc.Env.Deployment + "." + format, Data: data}}, nil
}

// Encode serializes the resource list in the given format.
func Encode(topo *topology.Config, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(topo, yaml.Indent(2), yaml.IndentSequence(true))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal resources to YAML: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(topo, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal resources to JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
