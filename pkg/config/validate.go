package config

import (
	"errors"
	"fmt"

	"github.com/nebari-dev/mysql-topology/pkg/naming"
)

// ErrInvalidConfig is wrapped by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid deployment config")

// Validate checks the context once, before any resource is generated, and
// reports every violation it finds in a single joined error.
//
// Zones must look like "<region>-<letter>" and all belong to the region of the
// first zone, since addresses are reserved in that region only.
func (d *DeploymentContext) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch {
	case d.Env.Deployment == "":
		fail("env.deployment is required")
	case !naming.IsResourceName(d.Env.Deployment):
		fail("env.deployment: %q must be lowercase letters, digits and hyphens, starting with a letter", d.Env.Deployment)
	}
	if d.Env.Name == "" {
		fail("env.name is required")
	}
	if d.Env.Project == "" {
		fail("env.project is required")
	}

	p := d.Properties
	if len(p.Zones) == 0 {
		fail("properties.zones must list at least one zone")
	}

	var region string
	seen := make(map[string]bool, len(p.Zones))
	for i, zone := range p.Zones {
		if !naming.IsZone(zone) {
			fail("properties.zones[%d]: %q is not a <region>-<letter> zone", i, zone)
			continue
		}
		if seen[zone] {
			fail("properties.zones[%d]: zone %q listed more than once", i, zone)
		}
		seen[zone] = true

		if region == "" {
			region = naming.Region(zone)
		} else if r := naming.Region(zone); r != region {
			fail("properties.zones[%d]: zone %q is outside region %q", i, zone, region)
		}
	}

	if p.MachineType == "" {
		fail("properties.machineType is required")
	}
	if p.Network == "" {
		fail("properties.network is required")
	}
	if p.Subnetwork == "" {
		fail("properties.subnetwork is required")
	}
	if p.Image == "" {
		fail("properties.image is required")
	}
	if p.NodesPerZone < 0 {
		fail("properties.nodesPerZone must not be negative, got %d", p.NodesPerZone)
	}
	if p.DiskPerNode < 0 {
		fail("properties.diskPerNode must not be negative, got %d", p.DiskPerNode)
	}
	if p.DiskPerNode > 0 {
		if p.DataDiskSize <= 0 {
			fail("properties.dataDiskSize must be positive when diskPerNode is set, got %d", p.DataDiskSize)
		}
		if p.DataDiskType == "" {
			fail("properties.dataDiskType is required when diskPerNode is set")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
