package naming

import (
	"fmt"
	"regexp"
	"strings"
)

var resourceNameRE = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

// IsResourceName reports whether name is a valid Compute Engine resource
// name. Deployment names prefix every generated resource and output path, so
// they must satisfy it too.
func IsResourceName(name string) bool {
	return resourceNameRE.MatchString(name)
}

// Region derives the region of a zone by dropping its "-<letter>" suffix.
// The zone must satisfy IsZone.
func Region(zone string) string {
	return zone[:len(zone)-2]
}

// ZoneSuffix returns the letter that distinguishes a zone within its region.
func ZoneSuffix(zone string) string {
	return zone[len(zone)-1:]
}

// IsZone reports whether zone follows the "<region>-<letter>" convention that
// Region and ZoneSuffix rely on.
func IsZone(zone string) bool {
	n := len(zone)
	if n < 3 || zone[n-2] != '-' {
		return false
	}
	c := zone[n-1]
	return c >= 'a' && c <= 'z'
}

func Address(deployment, zone string, node int) string {
	return fmt.Sprintf("%s-ip-%s%d", deployment, ZoneSuffix(zone), node)
}

func DataDisk(deployment string, disk, seq int) string {
	return fmt.Sprintf("%s-data%d-%d", deployment, disk, seq)
}

func Instance(deployment string, seq int) string {
	return fmt.Sprintf("%s-%d", deployment, seq)
}

func ClusterTag(deployment string) string {
	return "cluster-" + deployment
}

// InternalDNS returns the zonal internal DNS name of an instance.
func InternalDNS(instance, zone, project string) string {
	return instance + "." + zone + ".c." + project + ".internal"
}

// Role is the replication role of a MySQL node.
type Role string

const (
	RoleMaster Role = "master"
	RoleSlave  Role = "slave"
)

// RoleForSequence returns the role of the node at the given global sequence.
// Only the very first node of the topology is the master.
func RoleForSequence(seq int) Role {
	if seq == 0 {
		return RoleMaster
	}
	return RoleSlave
}

// RoleTags returns the generic and deployment-scoped tags for a role, e.g.
// "mysql-master" and "prod-master".
func RoleTags(deployment string, role Role) []string {
	return []string{"mysql-" + string(role), deployment + "-" + string(role)}
}

// Resource URL paths relative to the compute API.

func SubnetworkPath(region, subnetwork string) string {
	return "regions/" + region + "/subnetworks/" + subnetwork
}

func NetworkPath(network string) string {
	return "global/networks/" + network
}

func MachineTypePath(project, zone, machineType string) string {
	return "projects/" + project + "/zones/" + zone + "/machineTypes/" + machineType
}

// ComputeURLBase is the prefix of fully-qualified compute API URLs.
const ComputeURLBase = "https://www.googleapis.com/compute/v1/"

func DiskTypeURL(project, zone, diskType string) string {
	return ComputeURLBase + "projects/" + project + "/zones/" + zone + "/diskTypes/" + diskType
}

// Reference is a symbolic pointer to a field of another resource in the same
// resource list.
type Reference struct {
	Resource string
	Field    string
}

// String renders the reference token, e.g. "$(ref.prod-data1-0.selfLink)".
func (r Reference) String() string {
	return "$(ref." + r.Resource + "." + r.Field + ")"
}

// Ref builds the reference token for field of the named resource.
func Ref(resource, field string) string {
	return Reference{Resource: resource, Field: field}.String()
}

// ParseRef parses a reference token. Resource names never contain dots, so
// the last dot separates the resource from the field.
func ParseRef(token string) (Reference, bool) {
	inner, ok := strings.CutPrefix(token, "$(ref.")
	if !ok {
		return Reference{}, false
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return Reference{}, false
	}
	i := strings.LastIndexByte(inner, '.')
	if i <= 0 || i == len(inner)-1 {
		return Reference{}, false
	}
	return Reference{Resource: inner[:i], Field: inner[i+1:]}, true
}
