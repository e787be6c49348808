// File: topology/static.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Static is a Prober over fixed data. The system prober fills one from sysfs;
// tests and reproducible placements build one directly.

package topology

import (
	"sort"

	"github.com/momentics/cpustreams/affinity"
)

// Static is a Prober backed by fixed data.
type Static struct {
	Nodes    map[int]affinity.CPUSet // NUMA node -> CPUs
	Big      affinity.CPUSet         // big-core CPUs, siblings included
	Little   affinity.CPUSet         // little-core CPUs
	Siblings affinity.CPUSet         // big-core CPUs that are hyper-threading siblings
	Mask     affinity.CPUSet         // process affinity mask; empty disables pinning
}

var _ Prober = (*Static)(nil)

// Layout describes a synthetic host for NewStatic.
type Layout struct {
	BigCores       int  // physical big cores
	LittleCores    int  // little cores
	HyperThreading bool // two logical CPUs per big core
	Nodes          int  // NUMA nodes, CPUs split contiguously; 0 means 1
	Pinnable       bool // populate the process mask
}

// NewStatic synthesises a host. Big cores come first; with hyper-threading
// core i owns CPUs 2i and 2i+1. Little cores follow.
func NewStatic(l Layout) *Static {
	s := &Static{Nodes: make(map[int]affinity.CPUSet)}
	cpu := 0
	for i := 0; i < l.BigCores; i++ {
		s.Big.Set(cpu)
		cpu++
		if l.HyperThreading {
			s.Big.Set(cpu)
			s.Siblings.Set(cpu)
			cpu++
		}
	}
	for i := 0; i < l.LittleCores; i++ {
		s.Little.Set(cpu)
		cpu++
	}
	nodes := l.Nodes
	if nodes <= 0 {
		nodes = 1
	}
	per := (cpu + nodes - 1) / nodes
	for c := 0; c < cpu; c++ {
		n := 0
		if per > 0 {
			n = c / per
		}
		set := s.Nodes[n]
		set.Set(c)
		s.Nodes[n] = set
	}
	for n := 0; n < nodes; n++ {
		if _, ok := s.Nodes[n]; !ok {
			s.Nodes[n] = affinity.CPUSet{}
		}
	}
	if l.Pinnable {
		for c := 0; c < cpu; c++ {
			s.Mask.Set(c)
		}
	}
	return s
}

// NUMANodes implements Prober.
func (s *Static) NUMANodes() []int {
	out := make([]int, 0, len(s.Nodes))
	for n := range s.Nodes {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ProcTypeTable implements Prober.
func (s *Static) ProcTypeTable() ProcTypeTable {
	nodes := s.NUMANodes()
	if len(nodes) <= 1 {
		node := 0
		if len(nodes) == 1 {
			node = nodes[0]
		}
		return ProcTypeTable{s.row(s.all(), node)}
	}
	table := ProcTypeTable{s.row(s.all(), -1)}
	for _, n := range nodes {
		table = append(table, s.row(s.Nodes[n], n))
	}
	return table
}

func (s *Static) all() affinity.CPUSet {
	var all affinity.CPUSet
	for _, c := range s.Big.CPUs() {
		all.Set(c)
	}
	for _, c := range s.Little.CPUs() {
		all.Set(c)
	}
	return all
}

func (s *Static) row(cpus affinity.CPUSet, node int) []int {
	row := make([]int, procTableColumns)
	for _, c := range cpus.CPUs() {
		switch {
		case s.Little.IsSet(c):
			row[EfficientCoreProc]++
		case s.Siblings.IsSet(c):
			row[HyperThreadingProc]++
		case s.Big.IsSet(c):
			row[MainCoreProc]++
		default:
			continue
		}
		row[AllProc]++
	}
	row[ProcNUMANodeID] = node
	return row
}

// ProcessMask implements Prober.
func (s *Static) ProcessMask() (affinity.CPUSet, int) {
	cpus := s.Mask.CPUs()
	if len(cpus) == 0 {
		return affinity.CPUSet{}, 0
	}
	return s.Mask.Clone(), cpus[len(cpus)-1] + 1
}

// CoreTypeCPUs implements Prober. A host without little cores reports every
// CPU as big.
func (s *Static) CoreTypeCPUs(ct CoreType) affinity.CPUSet {
	switch ct {
	case CoreBig:
		return s.Big.Clone()
	case CoreLittle:
		return s.Little.Clone()
	}
	return affinity.CPUSet{}
}

// NodeCPUs implements Prober.
func (s *Static) NodeCPUs(node int) affinity.CPUSet {
	return s.Nodes[node].Clone()
}

// PhysicalCores implements Prober.
func (s *Static) PhysicalCores(bigOnly bool) int {
	big := s.Big.Count() - s.Siblings.Count()
	if bigOnly {
		return big
	}
	return big + s.Little.Count()
}
