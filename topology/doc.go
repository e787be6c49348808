// File: topology/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package topology probes the host CPU layout used for stream placement:
// NUMA nodes, the processor type table (big, little and hyper-threading
// cores per node), and the process affinity mask.
//
// Probing never fails. Platforms that expose less information degrade to a
// single NUMA node, a non-hybrid core layout, and, without an affinity mask,
// no thread pinning at all.
package topology
