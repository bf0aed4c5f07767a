package opentofu

// Document is an OpenTofu configuration in JSON syntax.
type Document struct {
	Terraform TerraformBlock            `json:"terraform"`
	Provider  map[string]GoogleProvider `json:"provider"`
	// Resource is keyed by resource type, then by resource name.
	Resource map[string]map[string]any `json:"resource"`
	Output   map[string]Output         `json:"output,omitempty"`
}

type TerraformBlock struct {
	RequiredProviders map[string]RequiredProvider `json:"required_providers"`
}

type RequiredProvider struct {
	Source string `json:"source"`
}

type GoogleProvider struct {
	Project string `json:"project"`
	Region  string `json:"region"`
}

type Output struct {
	Value any `json:"value"`
}

// Address is a google_compute_address.
type Address struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	AddressType string `json:"address_type"`
	Subnetwork  string `json:"subnetwork"`
}

// Disk is a google_compute_disk.
type Disk struct {
	Name string `json:"name"`
	Zone string `json:"zone"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// Instance is a google_compute_instance. Nested blocks are encoded as lists,
// which the JSON syntax accepts for blocks of any nesting mode.
type Instance struct {
	Name             string             `json:"name"`
	Zone             string             `json:"zone"`
	MachineType      string             `json:"machine_type"`
	Tags             []string           `json:"tags"`
	BootDisk         []BootDisk         `json:"boot_disk"`
	AttachedDisk     []AttachedDisk     `json:"attached_disk,omitempty"`
	NetworkInterface []NetworkInterface `json:"network_interface"`
	ServiceAccount   []ServiceAccount   `json:"service_account,omitempty"`
}

type BootDisk struct {
	DeviceName       string          `json:"device_name"`
	AutoDelete       bool            `json:"auto_delete"`
	InitializeParams *BootDiskParams `json:"initialize_params,omitempty"`
}

type BootDiskParams struct {
	Image string `json:"image"`
}

type AttachedDisk struct {
	Source     string `json:"source"`
	DeviceName string `json:"device_name"`
	Mode       string `json:"mode"`
}

type NetworkInterface struct {
	Network      string         `json:"network"`
	Subnetwork   string         `json:"subnetwork"`
	NetworkIP    string         `json:"network_ip"`
	AccessConfig []AccessConfig `json:"access_config,omitempty"`
}

// AccessConfig is left empty so the provider allocates an ephemeral NAT IP.
type AccessConfig struct{}

type ServiceAccount struct {
	Email  string   `json:"email"`
	Scopes []string `json:"scopes"`
}
