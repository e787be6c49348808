// File: streams/placement.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"github.com/momentics/cpustreams/topology"
)

// coreTypeStreams is one prefix-sum entry: streams with wrapped ids below
// total, and not claimed by an earlier entry, run on coreType.
type coreTypeStreams struct {
	coreType topology.CoreType
	total    int
}

// streamsOnCoreTypes splits the stream id space over core types, fastest
// type first. Every type gets at least one stream.
func streamsOnCoreTypes(cfg Config, snap *topology.Snapshot) []coreTypeStreams {
	bigPhys := snap.BigPhysicalCores
	smallPhys := snap.PhysicalCores - bigPhys

	out := make([]coreTypeStreams, 0, len(snap.CoreTypes))
	sum := 0
	for i := len(snap.CoreTypes) - 1; i >= 0; i-- {
		ct := snap.CoreTypes[i]
		var fit, want int
		if ct == topology.CoreLittle {
			if cfg.ThreadsPerStreamSmall != 0 {
				fit = smallPhys / cfg.ThreadsPerStreamSmall
			}
			want = cfg.SmallCoreStreams
		} else {
			// Big cores count twice: one stream per physical core and one
			// per hyper-threading sibling.
			if cfg.ThreadsPerStreamBig != 0 {
				fit = bigPhys / cfg.ThreadsPerStreamBig * 2
			}
			want = cfg.BigCoreStreams
		}
		sum += max(1, min(want, fit))
		out = append(out, coreTypeStreams{coreType: ct, total: sum})
	}
	return out
}

// placement is where round-robin puts one stream.
type placement struct {
	CoreType topology.CoreType
	// LocalID numbers the stream within its core type.
	LocalID      int
	Concurrency  int
	Step         int
	CPUIdxOffset int
}

// roundRobinPlacement places streamID using the table from streamsOnCoreTypes.
// Ids beyond the table wrap around, so placement is a pure function of the id.
func roundRobinPlacement(streamID int, cfg Config, table []coreTypeStreams, bigPhys int) placement {
	if len(table) == 0 {
		return placement{CoreType: topology.CoreBig, LocalID: streamID, Step: cfg.ThreadBindingStep}
	}
	total := table[len(table)-1].total
	bigStreams := table[0].total
	hybrid := len(table) > 1

	phyCoreStreams := 0
	if cfg.BigCoreStreams != 0 && cfg.ThreadsPerStreamBig != 0 {
		phyCoreStreams = bigPhys / cfg.ThreadsPerStreamBig
	}

	wrapped := streamID % total
	selected := table[len(table)-1].coreType
	for _, e := range table {
		if wrapped < e.total {
			selected = e.coreType
			break
		}
	}

	small := hybrid && selected == topology.CoreLittle
	logic := !small && wrapped >= phyCoreStreams
	// Little cores in clusters of four with three threads per stream leave
	// one core per cluster idle.
	skip := small && cfg.ThreadsPerStreamSmall == 3 && cfg.SmallCoreStreams > 1

	p := placement{CoreType: selected, Step: cfg.ThreadBindingStep, LocalID: wrapped}
	if small {
		p.Concurrency = cfg.ThreadsPerStreamSmall
	} else {
		p.Concurrency = cfg.ThreadsPerStreamBig
	}
	if !hybrid {
		return p
	}

	switch {
	case small:
		p.CPUIdxOffset = cfg.SmallCoreOffset
		if skip {
			p.LocalID = 0
			p.CPUIdxOffset += (wrapped - bigStreams) * 4
		} else {
			p.LocalID = wrapped - bigStreams
		}
	case logic:
		p.LocalID = wrapped - phyCoreStreams
		p.Step = 2
	default:
		// Physical big-core streams start past ordinal 0 and stride over siblings.
		p.Step = 2
		p.CPUIdxOffset = 1
	}
	return p
}

// usedNUMANodes returns the nodes streams spread over: the first streams
// nodes, or all of them when streams is 0. Never empty.
func usedNUMANodes(streams int, nodes []int) []int {
	if len(nodes) == 0 {
		return []int{0}
	}
	if streams == 0 || streams >= len(nodes) {
		return append([]int(nil), nodes...)
	}
	return append([]int(nil), nodes[:streams]...)
}

// numaNodeFor assigns streamID to a node, keeping consecutive ids together
// when streams outnumber nodes.
func numaNodeFor(streamID, streams int, used []int) int {
	if len(used) == 0 {
		return 0
	}
	if streams <= 0 {
		return used[streamID%len(used)]
	}
	perNode := (streams + len(used) - 1) / len(used)
	idx := (streamID % streams) / perNode
	if idx >= len(used) {
		idx = len(used) - 1
	}
	return used[idx]
}
