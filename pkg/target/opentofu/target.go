// Package opentofu renders a topology as an OpenTofu configuration in JSON
// syntax for the google provider. Cross-reference tokens become ${...}
// interpolations, so the dependency graph between addresses, disks and
// instances is preserved.
package opentofu

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/naming"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

const (
	// Name identifies the target on the command line.
	Name = "opentofu"

	// FileName is the name of the rendered configuration file
	FileName = "main.tf.json"

	FormatJSON = "json"

	googleProviderSource = "hashicorp/google"
)

// resourceTypes maps topology type tags to google provider resource types.
var resourceTypes = map[string]string{
	topology.TypeAddress:  "google_compute_address",
	topology.TypeDisk:     "google_compute_disk",
	topology.TypeInstance: "google_compute_instance",
}

// attributes maps reference fields to provider attribute names.
var attributes = map[string]string{
	"selfLink": "self_link",
	"address":  "address",
	"name":     "name",
}

// Target implements target.Target for OpenTofu.
type Target struct{}

// NewTarget creates a new OpenTofu target
func NewTarget() *Target {
	return &Target{}
}

func (t *Target) Name() string {
	return Name
}

func (t *Target) Formats() []string {
	return []string{FormatJSON}
}

// Render translates the topology into main.tf.json.
func (t *Target) Render(ctx context.Context, dc *config.DeploymentContext, topo *topology.Config, opts target.Options) ([]target.File, error) {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "opentofu.Render")
	defer span.End()

	if _, err := target.ResolveFormat(t, opts.Format); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("deployment", dc.Env.Deployment),
		attribute.Int("resources", len(topo.Resources)),
	)

	doc, err := Translate(dc, topo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal tofu configuration: %w", err)
	}

	return []target.File{{Path: FileName, Data: append(data, '\n')}}, nil
}

// Translate builds the OpenTofu document for a topology.
func Translate(dc *config.DeploymentContext, topo *topology.Config) (*Document, error) {
	tr := translator{
		dc:    dc,
		types: make(map[string]string, len(topo.Resources)),
	}
	for _, r := range topo.Resources {
		tfType, ok := resourceTypes[r.Type]
		if !ok {
			return nil, fmt.Errorf("resource %s: unsupported type %q", r.Name, r.Type)
		}
		tr.types[r.Name] = tfType
	}

	doc := &Document{
		Terraform: TerraformBlock{
			RequiredProviders: map[string]RequiredProvider{
				"google": {Source: googleProviderSource},
			},
		},
		Provider: map[string]GoogleProvider{
			"google": {
				Project: dc.Env.Project,
				Region:  naming.Region(dc.Properties.Zones[0]),
			},
		},
		Resource: make(map[string]map[string]any, len(resourceTypes)),
		Output:   make(map[string]Output),
	}

	var nodeIPs []string
	for _, r := range topo.Resources {
		var block any
		var err error

		switch p := r.Properties.(type) {
		case *topology.AddressProperties:
			block = tr.address(r.Name, p)
		case *topology.DiskProperties:
			block = tr.disk(r.Name, p)
		case *topology.InstanceProperties:
			block, err = tr.instance(r.Name, p)
			if err == nil {
				nodeIPs = append(nodeIPs, fmt.Sprintf("${%s.%s.network_interface[0].network_ip}", tr.types[r.Name], r.Name))
				if r.Name == naming.Instance(dc.Env.Deployment, 0) {
					doc.Output["master"] = Output{Value: fmt.Sprintf("${%s.%s.name}", tr.types[r.Name], r.Name)}
				}
			}
		default:
			err = fmt.Errorf("resource %s: unexpected properties %T", r.Name, r.Properties)
		}
		if err != nil {
			return nil, err
		}

		tfType := tr.types[r.Name]
		if doc.Resource[tfType] == nil {
			doc.Resource[tfType] = make(map[string]any)
		}
		doc.Resource[tfType][r.Name] = block
	}

	if len(nodeIPs) > 0 {
		doc.Output["node_ips"] = Output{Value: nodeIPs}
	}

	return doc, nil
}

type translator struct {
	dc    *config.DeploymentContext
	types map[string]string
}

// interpolate turns a $(ref.name.field) token into a ${type.name.attr}
// expression. Tokens must reference a resource of the same topology.
func (tr translator) interpolate(token string) (string, error) {
	ref, ok := naming.ParseRef(token)
	if !ok {
		return "", fmt.Errorf("malformed reference %q", token)
	}
	tfType, ok := tr.types[ref.Resource]
	if !ok {
		return "", fmt.Errorf("reference %q points at unknown resource %q", token, ref.Resource)
	}
	attr, ok := attributes[ref.Field]
	if !ok {
		return "", fmt.Errorf("reference %q uses unsupported field %q", token, ref.Field)
	}
	return fmt.Sprintf("${%s.%s.%s}", tfType, ref.Resource, attr), nil
}

func (tr translator) address(name string, p *topology.AddressProperties) Address {
	return Address{
		Name:        name,
		Region:      p.Region,
		AddressType: "INTERNAL",
		Subnetwork:  tr.dc.Properties.Subnetwork,
	}
}

func (tr translator) disk(name string, p *topology.DiskProperties) Disk {
	return Disk{
		Name: name,
		Zone: p.Zone,
		Size: p.SizeGb,
		Type: tr.dc.Properties.DataDiskType,
	}
}

func (tr translator) instance(name string, p *topology.InstanceProperties) (Instance, error) {
	inst := Instance{
		Name:        name,
		Zone:        p.Zone,
		MachineType: tr.dc.Properties.MachineType,
		Tags:        p.Tags.Items,
	}

	for _, d := range p.Disks {
		if d.Boot {
			boot := BootDisk{DeviceName: d.DeviceName, AutoDelete: d.AutoDelete}
			if d.InitializeParams != nil {
				boot.InitializeParams = &BootDiskParams{Image: d.InitializeParams.SourceImage}
			}
			inst.BootDisk = []BootDisk{boot}
			continue
		}

		source, err := tr.interpolate(d.Source)
		if err != nil {
			return Instance{}, fmt.Errorf("instance %s: %w", name, err)
		}
		inst.AttachedDisk = append(inst.AttachedDisk, AttachedDisk{
			Source:     source,
			DeviceName: d.DeviceName,
			Mode:       d.Mode,
		})
	}

	for _, nic := range p.NetworkInterfaces {
		ip, err := tr.interpolate(nic.NetworkIP)
		if err != nil {
			return Instance{}, fmt.Errorf("instance %s: %w", name, err)
		}
		out := NetworkInterface{
			Network:    tr.dc.Properties.Network,
			Subnetwork: tr.dc.Properties.Subnetwork,
			NetworkIP:  ip,
		}
		for range nic.AccessConfigs {
			out.AccessConfig = append(out.AccessConfig, AccessConfig{})
		}
		inst.NetworkInterface = append(inst.NetworkInterface, out)
	}

	for _, sa := range p.ServiceAccounts {
		inst.ServiceAccount = append(inst.ServiceAccount, ServiceAccount{Email: sa.Email, Scopes: sa.Scopes})
	}

	return inst, nil
}
