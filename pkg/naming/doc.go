// Package naming provides the naming functions for generated cluster resources
// and the cross-reference token syntax understood by the provisioning engine.
//
// Names are composed from the deployment name so that several clusters can
// share one project. Addresses are numbered per zone ({deployment}-ip-{zone
// letter}{node}); disks and instances use the global node sequence
// ({deployment}-data{disk}-{seq}, {deployment}-{seq}), which keeps them unique
// across zones.
package naming
