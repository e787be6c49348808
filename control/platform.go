// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Host topology debug probes.

package control

import (
	"github.com/momentics/cpustreams/topology"
)

// RegisterPlatformProbes exposes the host layout seen by p.
func RegisterPlatformProbes(dp *DebugProbes, p topology.Prober) {
	dp.RegisterProbe("platform.numa_nodes", func() any {
		return p.NUMANodes()
	})
	dp.RegisterProbe("platform.proc_type_table", func() any {
		return p.ProcTypeTable()
	})
	dp.RegisterProbe("platform.process_mask", func() any {
		mask, _ := p.ProcessMask()
		return mask.String()
	})
}
