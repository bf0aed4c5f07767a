// Package prometheus renders Prometheus file-based service discovery targets
// for the exporters every MySQL node is tagged to run. Nodes are addressed
// through their zonal internal DNS names, so the file can be written before
// any IP address has been allocated.
package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/prometheus/common/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/naming"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

const (
	// Name identifies the target on the command line.
	Name = "prometheus"

	FormatJSON = "json"
)

// Exporter is a scrape job run on every node.
type Exporter struct {
	Job  string
	Tag  string
	Port int
}

// Exporters lists the jobs matching the exporter tags set on each instance.
var Exporters = []Exporter{
	{Job: "node", Tag: "prometheus-node-exporter", Port: 9100},
	{Job: "mysqld", Tag: "prometheus-mysqld-exporter", Port: 9104},
}

// Label names attached to every target group.
const (
	LabelDeployment model.LabelName = "deployment"
	LabelZone       model.LabelName = "zone"
	LabelRole       model.LabelName = "role"
	LabelNode       model.LabelName = "node"
)

// TargetGroup is one entry of a file_sd document.
type TargetGroup struct {
	Targets []string       `json:"targets"`
	Labels  model.LabelSet `json:"labels"`
}

// Target implements target.Target for Prometheus file_sd.
type Target struct{}

func NewTarget() *Target {
	return &Target{}
}

func (t *Target) Name() string {
	return Name
}

func (t *Target) Formats() []string {
	return []string{FormatJSON}
}

// Render writes <deployment>-targets.json.
func (t *Target) Render(ctx context.Context, dc *config.DeploymentContext, topo *topology.Config, opts target.Options) ([]target.File, error) {
	tracer := otel.Tracer("mysqltopo")
	_, span := tracer.Start(ctx, "prometheus.Render")
	defer span.End()

	if _, err := target.ResolveFormat(t, opts.Format); err != nil {
		span.RecordError(err)
		return nil, err
	}

	groups, err := Groups(dc, topo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("deployment", dc.Env.Deployment),
		attribute.Int("target_groups", len(groups)),
	)

	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal target groups: %w", err)
	}

	return []target.File{{Path: dc.Env.Deployment + "-targets.json", Data: append(data, '\n')}}, nil
}

// Groups builds one target group per instance and exporter it is tagged for,
// in topology order.
func Groups(dc *config.DeploymentContext, topo *topology.Config) ([]TargetGroup, error) {
	master := naming.RoleTags(dc.Env.Deployment, naming.RoleMaster)[0]

	groups := []TargetGroup{}
	for _, r := range topo.ByType(topology.TypeInstance) {
		p, ok := r.Properties.(*topology.InstanceProperties)
		if !ok {
			return nil, fmt.Errorf("instance %s: unexpected properties %T", r.Name, r.Properties)
		}

		role := naming.RoleSlave
		if slices.Contains(p.Tags.Items, master) {
			role = naming.RoleMaster
		}
		host := naming.InternalDNS(r.Name, p.Zone, dc.Env.Project)

		for _, exp := range Exporters {
			if !slices.Contains(p.Tags.Items, exp.Tag) {
				continue
			}
			labels := model.LabelSet{
				model.JobLabel:  model.LabelValue(exp.Job),
				LabelDeployment: model.LabelValue(dc.Env.Deployment),
				LabelZone:       model.LabelValue(p.Zone),
				LabelRole:       model.LabelValue(role),
				LabelNode:       model.LabelValue(r.Name),
			}
			if err := labels.Validate(); err != nil {
				return nil, fmt.Errorf("instance %s: %w", r.Name, err)
			}
			groups = append(groups, TargetGroup{
				Targets: []string{fmt.Sprintf("%s:%d", host, exp.Port)},
				Labels:  labels,
			})
		}
	}
	return groups, nil
}
