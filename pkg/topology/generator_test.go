package topology

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/nebari-dev/mysql-topology/pkg/config"
)

func newContext(zones []string, nodesPerZone, diskPerNode int, publicIP bool) *config.DeploymentContext {
	return &config.DeploymentContext{
		Env: config.Environment{
			Deployment: "prod",
			Name:       "mysql-nodes",
			Project:    "acme-db",
		},
		Properties: config.Properties{
			Zones:          zones,
			MachineType:    "n1-standard-4",
			Network:        "default",
			Subnetwork:     "db",
			NodesPerZone:   nodesPerZone,
			AssignPublicIP: publicIP,
			Image:          "debian-12",
			DiskPerNode:    diskPerNode,
			DataDiskSize:   500,
			DataDiskType:   "pd-ssd",
		},
	}
}

func mustGenerate(t *testing.T, dc *config.DeploymentContext) *Config {
	t.Helper()
	cfg, err := Generate(context.Background(), dc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return cfg
}

func instanceProps(t *testing.T, r Resource) *InstanceProperties {
	t.Helper()
	p, ok := r.Properties.(*InstanceProperties)
	if !ok {
		t.Fatalf("resource %s: properties are %T, want *InstanceProperties", r.Name, r.Properties)
	}
	return p
}

func TestGenerate_Counts(t *testing.T) {
	tests := []struct {
		name         string
		zones        []string
		nodesPerZone int
		diskPerNode  int
	}{
		{"single zone single node", []string{"us-central1-a"}, 1, 0},
		{"two zones one disk", []string{"us-central1-a", "us-central1-b"}, 1, 1},
		{"three zones many disks", []string{"us-central1-a", "us-central1-b", "us-central1-c"}, 3, 2},
		{"no nodes", []string{"us-central1-a", "us-central1-b"}, 0, 2},
		{"no disks", []string{"europe-west1-b", "europe-west1-c"}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustGenerate(t, newContext(tt.zones, tt.nodesPerZone, tt.diskPerNode, false))

			nodes := len(tt.zones) * tt.nodesPerZone
			if got := len(cfg.ByType(TypeAddress)); got != nodes {
				t.Errorf("addresses = %d, want %d", got, nodes)
			}
			if got := len(cfg.ByType(TypeInstance)); got != nodes {
				t.Errorf("instances = %d, want %d", got, nodes)
			}
			if got := len(cfg.ByType(TypeDisk)); got != nodes*tt.diskPerNode {
				t.Errorf("disks = %d, want %d", got, nodes*tt.diskPerNode)
			}

			for _, r := range cfg.ByType(TypeInstance) {
				if got := len(instanceProps(t, r).Disks); got != tt.diskPerNode+1 {
					t.Errorf("%s attaches %d disks, want %d", r.Name, got, tt.diskPerNode+1)
				}
			}
		})
	}
}

func TestGenerate_UniqueNames(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a", "us-central1-b", "us-central1-f"}, 4, 3, true))

	seen := make(map[string]bool, len(cfg.Resources))
	for _, r := range cfg.Resources {
		if seen[r.Name] {
			t.Errorf("duplicate resource name %q", r.Name)
		}
		seen[r.Name] = true
	}
}

func TestGenerate_SingleMaster(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a", "us-central1-b"}, 3, 0, false))

	masters := 0
	for i, r := range cfg.ByType(TypeInstance) {
		tags := instanceProps(t, r).Tags.Items
		isMaster := slices.Contains(tags, "mysql-master")
		isSlave := slices.Contains(tags, "mysql-slave")

		if isMaster == isSlave {
			t.Errorf("%s: tags %v must carry exactly one of mysql-master/mysql-slave", r.Name, tags)
		}
		if isMaster {
			masters++
			if i != 0 {
				t.Errorf("master is instance %d (%s), want the first instance", i, r.Name)
			}
			if !slices.Contains(tags, "prod-master") {
				t.Errorf("%s: missing prod-master tag", r.Name)
			}
		} else if !slices.Contains(tags, "prod-slave") {
			t.Errorf("%s: missing prod-slave tag", r.Name)
		}
	}
	if masters != 1 {
		t.Errorf("masters = %d, want 1", masters)
	}
}

func TestGenerate_PublicIP(t *testing.T) {
	tests := []struct {
		name     string
		publicIP bool
	}{
		{"private", false},
		{"public", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustGenerate(t, newContext([]string{"us-central1-a", "us-central1-b"}, 2, 1, tt.publicIP))

			for _, r := range cfg.ByType(TypeInstance) {
				p := instanceProps(t, r)

				if got := slices.Contains(p.Tags.Items, "no-ip"); got == tt.publicIP {
					t.Errorf("%s: no-ip tag present = %v with assignPublicIp = %v", r.Name, got, tt.publicIP)
				}
				for _, nic := range p.NetworkInterfaces {
					if got := len(nic.AccessConfigs) > 0; got != tt.publicIP {
						t.Errorf("%s: access config present = %v with assignPublicIp = %v", r.Name, got, tt.publicIP)
					}
				}
			}
		})
	}
}

func TestGenerate_Example(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a", "us-central1-b"}, 1, 1, false))

	var names []string
	for _, r := range cfg.Resources {
		names = append(names, r.Name)
	}
	want := []string{
		"prod-ip-a1", "prod-data1-0", "prod-0",
		"prod-ip-b1", "prod-data1-1", "prod-1",
	}
	if !slices.Equal(names, want) {
		t.Fatalf("resource names = %v, want %v", names, want)
	}

	addr, _ := cfg.Find("prod-ip-b1")
	if got := addr.Properties.(*AddressProperties).Region; got != "us-central1" {
		t.Errorf("region = %q, want us-central1", got)
	}

	first, _ := cfg.Find("prod-0")
	second, _ := cfg.Find("prod-1")
	if !slices.Contains(instanceProps(t, first).Tags.Items, "mysql-master") {
		t.Errorf("prod-0 is not tagged mysql-master")
	}
	if !slices.Contains(instanceProps(t, second).Tags.Items, "mysql-slave") {
		t.Errorf("prod-1 is not tagged mysql-slave")
	}
}

func TestGenerate_CrossReferences(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a", "us-central1-b"}, 2, 2, false))

	for _, r := range cfg.ByType(TypeInstance) {
		p := instanceProps(t, r)
		for _, d := range p.Disks[1:] {
			if _, ok := cfg.Find(d.DeviceName); !ok {
				t.Errorf("%s attaches unknown disk %q", r.Name, d.DeviceName)
			}
			if want := "$(ref." + d.DeviceName + ".selfLink)"; d.Source != want {
				t.Errorf("%s: source = %q, want %q", r.Name, d.Source, want)
			}
		}
	}

	second, _ := cfg.Find("prod-3")
	if got := instanceProps(t, second).NetworkInterfaces[0].NetworkIP; got != "$(ref.prod-ip-b2.address)" {
		t.Errorf("prod-3 networkIP = %q, want $(ref.prod-ip-b2.address)", got)
	}
}

// TestGenerate_DocumentShape pins the exact output of a one-node cluster.
func TestGenerate_DocumentShape(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a"}, 1, 1, true))

	got, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"resources":[` +
		`{"name":"prod-ip-a1","type":"compute.v1.address","properties":{"region":"us-central1","addressType":"INTERNAL","subnetwork":"regions/us-central1/subnetworks/db"}},` +
		`{"name":"prod-data1-0","type":"compute.v1.disk","properties":{"zone":"us-central1-a","sizeGb":500,"type":"https://www.googleapis.com/compute/v1/projects/acme-db/zones/us-central1-a/diskTypes/pd-ssd"}},` +
		`{"name":"prod-0","type":"compute.v1.instance","properties":{"zone":"us-central1-a",` +
		`"tags":{"items":["prod","mysql-nodes","mysql-node","prometheus-node-exporter","prometheus-mysqld-exporter","cluster-prod","mysql-master","prod-master"]},` +
		`"disks":[{"deviceName":"boot","boot":true,"type":"PERSISTENT","autoDelete":true,"mode":"READ_WRITE","initializeParams":{"sourceImage":"debian-12"}},` +
		`{"deviceName":"prod-data1-0","boot":false,"type":"PERSISTENT","autoDelete":false,"mode":"READ_WRITE","source":"$(ref.prod-data1-0.selfLink)"}],` +
		`"networkInterfaces":[{"accessConfigs":[{"name":"external-nat","type":"ONE_TO_ONE_NAT"}],"network":"global/networks/default","networkIP":"$(ref.prod-ip-a1.address)","subnetwork":"regions/us-central1/subnetworks/db"}],` +
		`"machineType":"projects/acme-db/zones/us-central1-a/machineTypes/n1-standard-4",` +
		`"serviceAccounts":[{"email":"default","scopes":["https://www.googleapis.com/auth/monitoring"]}]}}]}`

	if string(got) != want {
		t.Errorf("document mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestGenerate_PrivateTagOrder(t *testing.T) {
	cfg := mustGenerate(t, newContext([]string{"us-central1-a"}, 2, 0, false))

	second, _ := cfg.Find("prod-1")
	want := []string{"prod", "mysql-nodes", "mysql-node", "no-ip", "prometheus-node-exporter", "prometheus-mysqld-exporter", "cluster-prod", "mysql-slave", "prod-slave"}
	if got := instanceProps(t, second).Tags.Items; !slices.Equal(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestGenerate_InvalidContext(t *testing.T) {
	dc := newContext(nil, 1, 0, false)

	_, err := Generate(context.Background(), dc)
	if err == nil {
		t.Fatal("Generate() expected error for empty zone list, got nil")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("error = %v, want wrapped config.ErrInvalidConfig", err)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	dc := newContext([]string{"us-central1-a", "us-central1-c"}, 2, 2, true)

	a, _ := json.Marshal(mustGenerate(t, dc))
	b, _ := json.Marshal(mustGenerate(t, dc))
	if string(a) != string(b) {
		t.Error("two invocations with the same context produced different documents")
	}
}
