package topology

// Resource type tags understood by the provisioning engine.
const (
	TypeAddress  = "compute.v1.address"
	TypeDisk     = "compute.v1.disk"
	TypeInstance = "compute.v1.instance"
)

// Config is the generated document handed to the provisioning engine.
type Config struct {
	Resources []Resource `yaml:"resources" json:"resources"`
}

// Resource is a single resource descriptor. Properties holds one of
// *AddressProperties, *DiskProperties or *InstanceProperties, matching Type.
type Resource struct {
	Name       string `yaml:"name" json:"name"`
	Type       string `yaml:"type" json:"type"`
	Properties any    `yaml:"properties" json:"properties"`
}

// AddressProperties reserves an internal IP address in the cluster subnetwork.
type AddressProperties struct {
	Region      string `yaml:"region" json:"region"`
	AddressType string `yaml:"addressType" json:"addressType"`
	Subnetwork  string `yaml:"subnetwork" json:"subnetwork"`
}

// DiskProperties describes a standalone data disk.
type DiskProperties struct {
	Zone   string `yaml:"zone" json:"zone"`
	SizeGb int    `yaml:"sizeGb" json:"sizeGb"`
	Type   string `yaml:"type" json:"type"`
}

// InstanceProperties describes a MySQL node.
type InstanceProperties struct {
	Zone              string             `yaml:"zone" json:"zone"`
	Tags              Tags               `yaml:"tags" json:"tags"`
	Disks             []AttachedDisk     `yaml:"disks" json:"disks"`
	NetworkInterfaces []NetworkInterface `yaml:"networkInterfaces" json:"networkInterfaces"`
	MachineType       string             `yaml:"machineType" json:"machineType"`
	ServiceAccounts   []ServiceAccount   `yaml:"serviceAccounts" json:"serviceAccounts"`
}

type Tags struct {
	Items []string `yaml:"items" json:"items"`
}

// AttachedDisk is a disk attachment on an instance. The boot disk is created
// inline from InitializeParams; data disks point at a disk resource through
// Source.
type AttachedDisk struct {
	DeviceName       string            `yaml:"deviceName" json:"deviceName"`
	Boot             bool              `yaml:"boot" json:"boot"`
	Type             string            `yaml:"type" json:"type"`
	AutoDelete       bool              `yaml:"autoDelete" json:"autoDelete"`
	Mode             string            `yaml:"mode" json:"mode"`
	InitializeParams *InitializeParams `yaml:"initializeParams,omitempty" json:"initializeParams,omitempty"`
	Source           string            `yaml:"source,omitempty" json:"source,omitempty"`
}

type InitializeParams struct {
	SourceImage string `yaml:"sourceImage" json:"sourceImage"`
}

// NetworkInterface attaches an instance to the cluster network. AccessConfigs
// is only populated when the node gets a public IP.
type NetworkInterface struct {
	AccessConfigs []AccessConfig `yaml:"accessConfigs,omitempty" json:"accessConfigs,omitempty"`
	Network       string         `yaml:"network" json:"network"`
	NetworkIP     string         `yaml:"networkIP" json:"networkIP"`
	Subnetwork    string         `yaml:"subnetwork" json:"subnetwork"`
}

type AccessConfig struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

type ServiceAccount struct {
	Email  string   `yaml:"email" json:"email"`
	Scopes []string `yaml:"scopes" json:"scopes"`
}

// ByType returns the resources of the given type, in list order.
func (c *Config) ByType(resourceType string) []Resource {
	var out []Resource
	for _, r := range c.Resources {
		if r.Type == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the resource with the given name.
func (c *Config) Find(name string) (Resource, bool) {
	for _, r := range c.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
