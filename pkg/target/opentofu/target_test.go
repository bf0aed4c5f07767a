package opentofu

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nebari-dev/mysql-topology/pkg/config"
	"github.com/nebari-dev/mysql-topology/pkg/target"
	"github.com/nebari-dev/mysql-topology/pkg/topology"
)

func newContext(publicIP bool) *config.DeploymentContext {
	return &config.DeploymentContext{
		Env: config.Environment{Deployment: "prod", Name: "mysql-nodes", Project: "acme-db"},
		Properties: config.Properties{
			Zones:          []string{"us-central1-a", "us-central1-b"},
			MachineType:    "n1-standard-4",
			Network:        "default",
			Subnetwork:     "db",
			NodesPerZone:   1,
			AssignPublicIP: publicIP,
			Image:          "debian-12",
			DiskPerNode:    2,
			DataDiskSize:   250,
			DataDiskType:   "pd-balanced",
		},
	}
}

func translate(t *testing.T, dc *config.DeploymentContext) *Document {
	t.Helper()
	topo, err := topology.Generate(context.Background(), dc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	doc, err := Translate(dc, topo)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	return doc
}

func TestTranslate_Provider(t *testing.T) {
	doc := translate(t, newContext(false))

	google := doc.Provider["google"]
	if google.Project != "acme-db" || google.Region != "us-central1" {
		t.Errorf("provider = %+v, want project acme-db region us-central1", google)
	}
	if src := doc.Terraform.RequiredProviders["google"].Source; src != "hashicorp/google" {
		t.Errorf("required provider source = %q", src)
	}
}

func TestTranslate_ResourceCounts(t *testing.T) {
	doc := translate(t, newContext(false))

	tests := []struct {
		tfType string
		want   int
	}{
		{"google_compute_address", 2},
		{"google_compute_disk", 4},
		{"google_compute_instance", 2},
	}
	for _, tt := range tests {
		t.Run(tt.tfType, func(t *testing.T) {
			if got := len(doc.Resource[tt.tfType]); got != tt.want {
				t.Errorf("%s count = %d, want %d", tt.tfType, got, tt.want)
			}
		})
	}
}

func TestTranslate_Instance(t *testing.T) {
	doc := translate(t, newContext(true))

	inst, ok := doc.Resource["google_compute_instance"]["prod-1"].(Instance)
	if !ok {
		t.Fatalf("prod-1 is %T, want Instance", doc.Resource["google_compute_instance"]["prod-1"])
	}

	if inst.Zone != "us-central1-b" || inst.MachineType != "n1-standard-4" {
		t.Errorf("zone/machine type = %s/%s", inst.Zone, inst.MachineType)
	}
	if len(inst.BootDisk) != 1 || inst.BootDisk[0].InitializeParams == nil || inst.BootDisk[0].InitializeParams.Image != "debian-12" {
		t.Errorf("boot disk = %+v", inst.BootDisk)
	}

	wantSources := []string{
		"${google_compute_disk.prod-data1-1.self_link}",
		"${google_compute_disk.prod-data2-1.self_link}",
	}
	if len(inst.AttachedDisk) != len(wantSources) {
		t.Fatalf("attached disks = %d, want %d", len(inst.AttachedDisk), len(wantSources))
	}
	for i, want := range wantSources {
		if inst.AttachedDisk[i].Source != want {
			t.Errorf("attached_disk[%d].source = %q, want %q", i, inst.AttachedDisk[i].Source, want)
		}
	}

	nic := inst.NetworkInterface[0]
	if nic.NetworkIP != "${google_compute_address.prod-ip-b1.address}" {
		t.Errorf("network_ip = %q", nic.NetworkIP)
	}
	if len(nic.AccessConfig) != 1 {
		t.Errorf("access_config blocks = %d, want 1 with public IP", len(nic.AccessConfig))
	}
}

func TestTranslate_PrivateHasNoAccessConfig(t *testing.T) {
	doc := translate(t, newContext(false))

	for name, block := range doc.Resource["google_compute_instance"] {
		inst := block.(Instance)
		if len(inst.NetworkInterface[0].AccessConfig) != 0 {
			t.Errorf("%s has an access_config without public IP", name)
		}
	}
}

func TestTranslate_Outputs(t *testing.T) {
	doc := translate(t, newContext(false))

	if got := doc.Output["master"].Value; got != "${google_compute_instance.prod-0.name}" {
		t.Errorf("master output = %v", got)
	}
	ips, ok := doc.Output["node_ips"].Value.([]string)
	if !ok || len(ips) != 2 {
		t.Errorf("node_ips output = %v", doc.Output["node_ips"].Value)
	}
}

func TestTranslate_DanglingReference(t *testing.T) {
	dc := newContext(false)
	topo := &topology.Config{Resources: []topology.Resource{{
		Name: "prod-0",
		Type: topology.TypeInstance,
		Properties: &topology.InstanceProperties{
			Zone: "us-central1-a",
			Disks: []topology.AttachedDisk{{
				DeviceName: "prod-data1-0",
				Source:     "$(ref.prod-data1-0.selfLink)",
			}},
		},
	}}}

	_, err := Translate(dc, topo)
	if err == nil || !strings.Contains(err.Error(), "unknown resource") {
		t.Errorf("Translate() error = %v, want unknown resource error", err)
	}
}

func TestRender(t *testing.T) {
	dc := newContext(false)
	topo, err := topology.Generate(context.Background(), dc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	files, err := NewTarget().Render(context.Background(), dc, topo, target.Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(files) != 1 || files[0].Path != FileName {
		t.Fatalf("Render() files = %v, want single %s", files, FileName)
	}

	var raw map[string]any
	if err := json.Unmarshal(files[0].Data, &raw); err != nil {
		t.Fatalf("rendered file is not valid JSON: %v", err)
	}
	for _, key := range []string{"terraform", "provider", "resource", "output"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("rendered document lacks %q block", key)
		}
	}

	if _, err := NewTarget().Render(context.Background(), dc, topo, target.Options{Format: "yaml"}); err == nil {
		t.Error("Render() accepted unsupported yaml format")
	}
}
