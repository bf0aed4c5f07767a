package target

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Registry holds registered targets
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
}

// NewRegistry creates a new target registry
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string]Target),
	}
}

// Register registers a target under its Name
func (r *Registry) Register(ctx context.Context, t Target) error {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "registry.Register")
	defer span.End()

	name := t.Name()
	span.SetAttributes(attribute.String("target.name", name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[name]; exists {
		err := fmt.Errorf("target %q is already registered", name)
		span.RecordError(err)
		return err
	}

	r.targets[name] = t
	return nil
}

// Get retrieves a target by name
func (r *Registry) Get(ctx context.Context, name string) (Target, error) {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "registry.Get")
	defer span.End()

	span.SetAttributes(attribute.String("target.name", name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.targets[name]
	if !exists {
		err := fmt.Errorf("target %q is not registered", name)
		span.RecordError(err)
		return nil, err
	}

	return t, nil
}

// List returns the registered target names in sorted order
func (r *Registry) List(ctx context.Context) []string {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "registry.List")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)

	span.SetAttributes(attribute.Int("target.count", len(names)))

	return names
}
