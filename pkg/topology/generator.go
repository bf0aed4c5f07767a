package topology

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/naming"
)

const (
	monitoringScope = "https://www.googleapis.com/auth/monitoring"

	diskTypePersistent = "PERSISTENT"
	diskModeReadWrite  = "READ_WRITE"
)

// Generate validates the deployment context and expands it into the cluster's
// resource list: for each zone, its internal addresses followed by the data
// disks and instance of each node. The result depends on the context alone.
func Generate(ctx context.Context, dc *config.DeploymentContext) (*Config, error) {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "topology.Generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("deployment", dc.Env.Deployment),
		attribute.Int("zones", len(dc.Properties.Zones)),
		attribute.Int("nodes_per_zone", dc.Properties.NodesPerZone),
		attribute.Int("disk_per_node", dc.Properties.DiskPerNode),
	)

	if err := dc.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	cfg := generate(dc)

	span.SetAttributes(attribute.Int("resources", len(cfg.Resources)))
	return cfg, nil
}

// generator holds the values shared by every zone of one invocation.
type generator struct {
	env    config.Environment
	props  config.Properties
	region string
}

func generate(dc *config.DeploymentContext) *Config {
	g := generator{
		env:    dc.Env,
		props:  dc.Properties,
		region: naming.Region(dc.Properties.Zones[0]),
	}

	p := g.props
	resources := make([]Resource, 0, len(p.Zones)*p.NodesPerZone*(2+p.DiskPerNode))

	seq := 0
	for _, zone := range p.Zones {
		for node := 1; node <= p.NodesPerZone; node++ {
			resources = append(resources, g.address(zone, node))
		}

		var zoneResources []Resource
		zoneResources, seq = g.zoneNodes(zone, seq)
		resources = append(resources, zoneResources...)
	}

	return &Config{Resources: resources}
}

// zoneNodes emits the disks and instance of every node in zone, numbering
// them from seq on. It returns the sequence value for the next zone.
func (g generator) zoneNodes(zone string, seq int) ([]Resource, int) {
	var out []Resource
	for node := 1; node <= g.props.NodesPerZone; node++ {
		disks := []AttachedDisk{g.bootDisk()}

		for disk := 1; disk <= g.props.DiskPerNode; disk++ {
			name := naming.DataDisk(g.env.Deployment, disk, seq)
			out = append(out, g.dataDisk(name, zone))
			disks = append(disks, AttachedDisk{
				DeviceName: name,
				Boot:       false,
				Type:       diskTypePersistent,
				AutoDelete: false,
				Mode:       diskModeReadWrite,
				Source:     naming.Ref(name, "selfLink"),
			})
		}

		out = append(out, Resource{
			Name: naming.Instance(g.env.Deployment, seq),
			Type: TypeInstance,
			Properties: &InstanceProperties{
				Zone:              zone,
				Tags:              Tags{Items: g.tags(seq)},
				Disks:             disks,
				NetworkInterfaces: g.networkInterfaces(zone, node),
				MachineType:       naming.MachineTypePath(g.env.Project, zone, g.props.MachineType),
				ServiceAccounts: []ServiceAccount{{
					Email:  "default",
					Scopes: []string{monitoringScope},
				}},
			},
		})
		seq++
	}
	return out, seq
}

func (g generator) address(zone string, node int) Resource {
	return Resource{
		Name: naming.Address(g.env.Deployment, zone, node),
		Type: TypeAddress,
		Properties: &AddressProperties{
			Region:      g.region,
			AddressType: "INTERNAL",
			Subnetwork:  naming.SubnetworkPath(g.region, g.props.Subnetwork),
		},
	}
}

func (g generator) dataDisk(name, zone string) Resource {
	return Resource{
		Name: name,
		Type: TypeDisk,
		Properties: &DiskProperties{
			Zone:   zone,
			SizeGb: g.props.DataDiskSize,
			Type:   naming.DiskTypeURL(g.env.Project, zone, g.props.DataDiskType),
		},
	}
}

func (g generator) bootDisk() AttachedDisk {
	return AttachedDisk{
		DeviceName: "boot",
		Boot:       true,
		Type:       diskTypePersistent,
		AutoDelete: true,
		Mode:       diskModeReadWrite,
		InitializeParams: &InitializeParams{
			SourceImage: g.props.Image,
		},
	}
}

// tags returns the network tags of the node at seq. Firewall rules and the
// bootstrap tooling select nodes by these, so the order is kept stable.
func (g generator) tags(seq int) []string {
	deployment := g.env.Deployment
	tags := []string{deployment, g.env.Name, "mysql-node"}
	if !g.props.AssignPublicIP {
		tags = append(tags, "no-ip")
	}
	tags = append(tags,
		"prometheus-node-exporter",
		"prometheus-mysqld-exporter",
		naming.ClusterTag(deployment),
	)
	return append(tags, naming.RoleTags(deployment, naming.RoleForSequence(seq))...)
}

func (g generator) networkInterfaces(zone string, node int) []NetworkInterface {
	nic := NetworkInterface{
		Network:    naming.NetworkPath(g.props.Network),
		NetworkIP:  naming.Ref(naming.Address(g.env.Deployment, zone, node), "address"),
		Subnetwork: naming.SubnetworkPath(g.region, g.props.Subnetwork),
	}
	if g.props.AssignPublicIP {
		nic.AccessConfigs = []AccessConfig{{Name: "external-nat", Type: "ONE_TO_ONE_NAT"}}
	}
	return []NetworkInterface{nic}
}
