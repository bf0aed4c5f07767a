package config

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ParseConfig reads a deployment file and returns its context with defaults
// applied. Unknown keys are rejected so typos in property names surface here
// instead of silently falling back to defaults. Semantic checks are left to
// Validate.
func ParseConfig(ctx context.Context, filePath string) (*DeploymentContext, error) {
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "config.ParseConfig")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	dc, err := Parse(ctx, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return dc, nil
}

// Parse decodes a deployment document from memory.
func Parse(ctx context.Context, data []byte) (*DeploymentContext, error) {
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "config.Parse")
	defer span.End()

	dc := NewDeploymentContext()
	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField())
	if err := dec.DecodeContext(ctx, dc); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("config.deployment", dc.Env.Deployment),
		attribute.Int("config.zones", len(dc.Properties.Zones)),
		attribute.Int("config.nodes_per_zone", dc.Properties.NodesPerZone),
	)

	return dc, nil
}
