package config

// DeploymentContext represents a parsed deployment file: the environment the
// template runs in plus the cluster properties.
type DeploymentContext struct {
	Env        Environment `yaml:"env" json:"env"`
	Properties Properties  `yaml:"properties" json:"properties"`
}

// Environment carries metadata about the deployment the topology belongs to.
type Environment struct {
	// Deployment is the deployment name; it prefixes every generated resource name
	Deployment string `yaml:"deployment" json:"deployment"`
	// Name is the template name, added to every instance's network tags
	Name string `yaml:"name" json:"name"`
	// Project is the cloud project ID used for machine and disk type references
	Project string `yaml:"project" json:"project"`
}

// Properties describes the shape of the MySQL cluster.
type Properties struct {
	// Zones lists the zones to spread nodes across. The region is derived from the first zone
	Zones []string `yaml:"zones" json:"zones"`
	// MachineType is the compute machine type for every node (e.g., n1-standard-4)
	MachineType string `yaml:"machineType" json:"machineType"`
	// Network is the VPC network name
	Network string `yaml:"network,omitempty" json:"network,omitempty"`
	// Subnetwork is the regional subnetwork name addresses are reserved in
	Subnetwork string `yaml:"subnetwork,omitempty" json:"subnetwork,omitempty"`
	// NodesPerZone is the number of MySQL nodes created in each zone
	NodesPerZone int `yaml:"nodesPerZone,omitempty" json:"nodesPerZone,omitempty"`
	// AssignPublicIP attaches an external NAT access config to every node
	AssignPublicIP bool `yaml:"assignPublicIp,omitempty" json:"assignPublicIp,omitempty"`
	// Image is the source image of each node's boot disk
	Image string `yaml:"image" json:"image"`
	// DiskPerNode is the number of standalone data disks attached to each node
	DiskPerNode int `yaml:"diskPerNode,omitempty" json:"diskPerNode,omitempty"`
	// DataDiskSize is the size of each data disk in GB
	DataDiskSize int `yaml:"dataDiskSize,omitempty" json:"dataDiskSize,omitempty"`
	// DataDiskType is the disk type of each data disk (e.g., pd-ssd, pd-standard)
	DataDiskType string `yaml:"dataDiskType,omitempty" json:"dataDiskType,omitempty"`
}

// Default property values used for keys a deployment file leaves out.
const (
	DefaultNodesPerZone = 1
	DefaultDataDiskSize = 100
	DefaultDataDiskType = "pd-ssd"
	DefaultNetwork      = "default"
	DefaultSubnetwork   = "default"
)

// NewDeploymentContext returns a context holding the default properties.
// Decoding a deployment file on top of it keeps the defaults for absent keys
// while still letting an explicit zero (e.g. nodesPerZone: 0) through.
func NewDeploymentContext() *DeploymentContext {
	return &DeploymentContext{
		Properties: Properties{
			Network:      DefaultNetwork,
			Subnetwork:   DefaultSubnetwork,
			NodesPerZone: DefaultNodesPerZone,
			DataDiskSize: DefaultDataDiskSize,
			DataDiskType: DefaultDataDiskType,
		},
	}
}

// NodeCount returns the total number of MySQL nodes in the topology.
func (p Properties) NodeCount() int {
	return len(p.Zones) * p.NodesPerZone
}

// DiskCount returns the total number of standalone data disks in the topology.
func (p Properties) DiskCount() int {
	return p.NodeCount() * p.DiskPerNode
}
