package target

import (
	"context"
	"fmt"
	"strings"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

// Target renders a generated topology into the files a provisioning engine
// consumes.
//
// CLI commands depend only on this interface, so adding an engine means
// registering one more Target without touching command code.
type Target interface {
	// Name returns the identifier used on the command line and in logs
	// (e.g., "deployment-manager", "opentofu").
	Name() string

	// Formats lists the output encodings the target supports. The first
	// entry is the default.
	Formats() []string

	// Render converts the topology into files. It performs no I/O; writing
	// the files is left to the caller.
	Render(ctx context.Context, dc *config.DeploymentContext, topo *topology.Config, opts Options) ([]File, error)
}

// Options tune a rendering.
type Options struct {
	// Format selects one of the target's Formats. Empty means the default.
	Format string
}

// File is one rendered output file. Path is relative to the output directory.
type File struct {
	Path string
	Data []byte
}

// ResolveFormat returns the format to use for t, rejecting unsupported ones.
func ResolveFormat(t Target, format string) (string, error) {
	formats := t.Formats()
	if format == "" {
		return formats[0], nil
	}
	for _, f := range formats {
		if f == format {
			return f, nil
		}
	}
	return "", &UnsupportedFormatError{Target: t.Name(), Format: format, Supported: formats}
}

// UnsupportedFormatError reports a format a target cannot produce.
type UnsupportedFormatError struct {
	Target    string
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("target %s does not support format %q, must be one of: %s",
		e.Target, e.Format, strings.Join(e.Supported, ", "))
}
