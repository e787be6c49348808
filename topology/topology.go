// File: topology/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package topology

import (
	"fmt"
	"sort"

	"github.com/momentics/cpustreams/affinity"
)

// CoreType is a CPU performance tier. Larger values are faster.
type CoreType int

const (
	// CoreLittle is an efficiency core.
	CoreLittle CoreType = iota
	// CoreBig is a performance core, including its hyper-threading siblings.
	CoreBig
)

func (c CoreType) String() string {
	switch c {
	case CoreLittle:
		return "little"
	case CoreBig:
		return "big"
	default:
		return fmt.Sprintf("coretype(%d)", int(c))
	}
}

// Columns of a ProcTypeTable row.
const (
	AllProc = iota
	MainCoreProc
	EfficientCoreProc
	HyperThreadingProc
	ProcNUMANodeID
	procTableColumns
)

// ProcTypeTable counts processors per core type. Row 0 is the process-wide
// total; when several NUMA nodes exist one row per node follows, in node
// order. ProcNUMANodeID is -1 on the total row of a multi-node table.
type ProcTypeTable [][]int

// Total returns the process-wide row.
func (t ProcTypeTable) Total() []int {
	if len(t) == 0 {
		return make([]int, procTableColumns)
	}
	return t[0]
}

// Prober exposes the host CPU layout.
type Prober interface {
	NUMANodes() []int
	ProcTypeTable() ProcTypeTable
	// ProcessMask returns the process affinity mask and the CPU id span.
	// An empty mask means pinning is unavailable.
	ProcessMask() (affinity.CPUSet, int)
	CoreTypeCPUs(CoreType) affinity.CPUSet
	NodeCPUs(node int) affinity.CPUSet
	// PhysicalCores counts physical cores, only big ones when bigOnly is set.
	PhysicalCores(bigOnly bool) int
}

// Snapshot is an immutable copy of a Prober's answers, taken once and shared
// by every stream of an executor. Callers must not modify its fields.
type Snapshot struct {
	NUMANodes        []int
	ProcTypeTable    ProcTypeTable
	ProcessMask      affinity.CPUSet
	NumCPUs          int
	CoreTypes        []CoreType
	PhysicalCores    int
	BigPhysicalCores int

	coreTypeCPUs map[CoreType]affinity.CPUSet
	nodeCPUs     map[int]affinity.CPUSet
}

// Probe freezes p into a Snapshot.
func Probe(p Prober) *Snapshot {
	mask, ncpus := p.ProcessMask()
	s := &Snapshot{
		NUMANodes:        append([]int(nil), p.NUMANodes()...),
		ProcessMask:      mask.Clone(),
		NumCPUs:          ncpus,
		PhysicalCores:    p.PhysicalCores(false),
		BigPhysicalCores: p.PhysicalCores(true),
		coreTypeCPUs:     make(map[CoreType]affinity.CPUSet),
		nodeCPUs:         make(map[int]affinity.CPUSet),
	}
	sort.Ints(s.NUMANodes)
	for _, row := range p.ProcTypeTable() {
		s.ProcTypeTable = append(s.ProcTypeTable, append([]int(nil), row...))
	}
	for _, ct := range []CoreType{CoreLittle, CoreBig} {
		if cpus := p.CoreTypeCPUs(ct); !cpus.Empty() {
			s.coreTypeCPUs[ct] = cpus.Clone()
			s.CoreTypes = append(s.CoreTypes, ct)
		}
	}
	if len(s.CoreTypes) == 0 {
		s.CoreTypes = []CoreType{CoreBig}
	}
	for _, n := range s.NUMANodes {
		s.nodeCPUs[n] = p.NodeCPUs(n).Clone()
	}
	return s
}

// Hybrid reports whether the host mixes big and little cores.
func (s *Snapshot) Hybrid() bool {
	return len(s.CoreTypes) > 1
}

// CoreTypeCPUs returns the CPUs of a core type, restricted to the process mask.
func (s *Snapshot) CoreTypeCPUs(ct CoreType) affinity.CPUSet {
	return s.restrict(s.coreTypeCPUs[ct])
}

// NodeCPUs returns the CPUs of a NUMA node, restricted to the process mask.
func (s *Snapshot) NodeCPUs(node int) affinity.CPUSet {
	return s.restrict(s.nodeCPUs[node])
}

func (s *Snapshot) restrict(cpus affinity.CPUSet) affinity.CPUSet {
	if s.ProcessMask.Empty() {
		return cpus.Clone()
	}
	return cpus.Intersect(s.ProcessMask)
}
