// File: streams/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momentics/cpustreams/internal/concurrency"
	"github.com/momentics/cpustreams/topology"
)

// StreamState is a stream's lifecycle stage.
type StreamState int32

const (
	StreamCreated StreamState = iota
	StreamBound
	StreamActive
	StreamRetiring
	StreamDestroyed
)

func (s StreamState) String() string {
	switch s {
	case StreamCreated:
		return "created"
	case StreamBound:
		return "bound"
	case StreamActive:
		return "active"
	case StreamRetiring:
		return "retiring"
	case StreamDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stream is the per-thread execution context of an executor: a stream id, a
// NUMA node, an optional arena with its pinning observer and the deferred
// queue of recursively submitted tasks. A stream belongs to exactly one
// goroutine; only its arena is shared with helper goroutines.
type Stream struct {
	exec     *Executor
	id       int
	numaNode int
	arena    *concurrency.Arena
	observer concurrency.Observer
	coreType topology.CoreType

	local     *concurrency.LocalQueue
	executing bool
	worker    bool

	state   atomic.Int32
	retired sync.Once
}

// ID returns the stream id, unique among the executor's live streams.
func (s *Stream) ID() int { return s.id }

// NUMANodeID returns the node the stream is assigned to.
func (s *Stream) NUMANodeID() int { return s.numaNode }

// Arena returns the stream's execution domain, or nil when tasks run directly
// on the stream's thread.
func (s *Stream) Arena() *concurrency.Arena { return s.arena }

// State returns the lifecycle stage.
func (s *Stream) State() StreamState { return StreamState(s.state.Load()) }

// Parallel runs body(i) for i in [0, n) within the stream's concurrency
// limit, or sequentially when the stream has no arena.
func (s *Stream) Parallel(n int, body func(i int)) {
	if s.arena == nil {
		for i := 0; i < n; i++ {
			body(i)
		}
		return
	}
	s.arena.Parallel(n, body)
}

func (s *Stream) setState(st StreamState) { s.state.Store(int32(st)) }

// newStream takes a free id and binds the new stream per the executor config.
func (e *Executor) newStream() *Stream {
	s := &Stream{
		exec:  e,
		id:    e.ids.Acquire(),
		local: concurrency.NewLocalQueue(),
	}
	s.numaNode = numaNodeFor(s.id, e.cfg.Streams, e.usedNodes)
	if len(e.cfg.StreamsInfo) > 0 {
		e.bindFromInfo(s)
	} else {
		e.bind(s)
	}
	s.setState(StreamBound)
	e.metrics.SetLiveStreams(e.cfg.Name, e.ids.Live())
	e.log.Debug().Int("stream", s.id).Int("numa_node", s.numaNode).
		Bool("arena", s.arena != nil).Msg("stream created")
	return s
}

func (e *Executor) attach(s *Stream, o concurrency.Observer) {
	s.observer = o
	s.arena.SetObserver(o)
}

func (e *Executor) pinFailed() {
	e.metrics.PinFailed(e.cfg.Name)
}

func (e *Executor) pinnable() bool {
	return !e.topo.ProcessMask.Empty()
}

func (e *Executor) pinObserver(offset, step, cpuIdxOffset int, cpuIDs []int) *pinObserver {
	return &pinObserver{
		mask:         e.topo.ProcessMask,
		ncpus:        e.topo.NumCPUs,
		offset:       offset,
		step:         step,
		cpuIdxOffset: cpuIdxOffset,
		cpuIDs:       cpuIDs,
		onFail:       e.pinFailed,
	}
}

// coreTypeObserver confines threads to the CPUs of one core type.
func (e *Executor) coreTypeObserver(ct topology.CoreType) *maskObserver {
	return &maskObserver{
		cpus:    e.topo.CoreTypeCPUs(ct),
		restore: e.topo.ProcessMask,
		ncpus:   e.topo.NumCPUs,
		node:    -1,
		onFail:  e.pinFailed,
	}
}

// nodeObserver confines threads to the CPUs of one NUMA node.
func (e *Executor) nodeObserver(node int) *maskObserver {
	return &maskObserver{
		cpus:    e.topo.NodeCPUs(node),
		restore: e.topo.ProcessMask,
		ncpus:   e.topo.NumCPUs,
		node:    node,
		onFail:  e.pinFailed,
	}
}

// bind selects the stream's arena and observer from the binding heuristics.
func (e *Executor) bind(s *Stream) {
	cfg := e.cfg
	switch {
	case cfg.ThreadBindingType == BindHybridAware:
		switch cfg.PreferredCoreType {
		case PreferAny:
			s.arena = concurrency.NewArena(cfg.ThreadsPerStream)
		case PreferBig, PreferLittle:
			s.coreType = e.topo.CoreTypes[len(e.topo.CoreTypes)-1]
			if cfg.PreferredCoreType == PreferLittle {
				s.coreType = e.topo.CoreTypes[0]
			}
			s.arena = concurrency.NewArena(cfg.ThreadsPerStream)
			if e.pinnable() {
				e.attach(s, e.coreTypeObserver(s.coreType))
			}
		case PreferRoundRobin:
			p := roundRobinPlacement(s.id, cfg, e.coreTypeTable, e.topo.BigPhysicalCores)
			s.coreType = p.CoreType
			s.arena = concurrency.NewArena(p.Concurrency)
			if e.pinnable() {
				offset := p.LocalID*s.arena.Concurrency() + cfg.ThreadBindingOffset
				e.attach(s, e.pinObserver(offset, p.Step, p.CPUIdxOffset, nil))
			}
		}
	case cfg.ThreadBindingType == BindNUMA:
		s.arena = concurrency.NewArena(cfg.ThreadsPerStream)
		if e.pinnable() {
			e.attach(s, e.nodeObserver(s.numaNode))
		}
	case cfg.ThreadsPerStream != 0 || cfg.ThreadBindingType == BindCores:
		s.arena = concurrency.NewArena(cfg.ThreadsPerStream)
		if cfg.ThreadBindingType == BindCores && e.pinnable() {
			offset := s.id*s.arena.Concurrency() + cfg.ThreadBindingOffset
			e.attach(s, e.pinObserver(offset, cfg.ThreadBindingStep, 0, nil))
		}
	}
}

// bindFromInfo binds the stream from the StreamsInfo layout. Stream ids past
// the configured count share the last stream's row.
func (e *Executor) bindFromInfo(s *Stream) {
	e.cpuMapMu.Lock()
	defer e.cpuMapMu.Unlock()

	cfg := e.cfg
	sid := s.id
	if cfg.Streams > 0 && sid > cfg.Streams-1 {
		sid = cfg.Streams - 1
	}
	if sid >= len(e.infoRows) {
		return
	}
	row := cfg.StreamsInfo[e.infoRows[sid]]
	if row.ThreadsPerStream <= 0 {
		return
	}

	s.arena = concurrency.NewArena(row.ThreadsPerStream)
	switch {
	case e.topo.ProcTypeTable.Total()[topology.EfficientCoreProc] > 0:
		s.coreType = topology.CoreLittle
		if row.ProcType == topology.MainCoreProc || row.ProcType == topology.HyperThreadingProc {
			s.coreType = topology.CoreBig
		}
		if !cfg.CPUPinning && row.ProcType != topology.AllProc && e.pinnable() {
			e.attach(s, e.coreTypeObserver(s.coreType))
		}
	case len(e.topo.ProcTypeTable) > 1 && !cfg.CPUPinning && e.pinnable():
		e.attach(s, e.nodeObserver(s.numaNode))
	}

	if cfg.CPUPinning && len(cfg.StreamCoreIDs) == cfg.Streams && sid < len(cfg.StreamCoreIDs) {
		if ids := cfg.StreamCoreIDs[sid]; len(ids) > 0 && e.pinnable() {
			e.attach(s, e.pinObserver(0, 0, 0, ids))
		}
	}
}

// retire releases the stream's id and detaches its observer. Safe to call
// more than once.
func (s *Stream) retire() {
	s.retired.Do(func() {
		s.setState(StreamRetiring)
		e := s.exec
		e.ids.Release(s.id)
		if s.arena != nil {
			s.arena.SetObserver(nil)
		}
		s.setState(StreamDestroyed)
		e.metrics.SetLiveStreams(e.cfg.Name, e.ids.Live())
		e.log.Debug().Int("stream", s.id).Msg("stream retired")
	})
}
