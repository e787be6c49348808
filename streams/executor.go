// File: streams/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"context"
	"fmt"
	"runtime"
	"runtime/pprof"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/control"
	"github.com/momentics/cpustreams/internal/concurrency"
	"github.com/momentics/cpustreams/topology"
)

var _ api.StreamsExecutor = (*Executor)(nil)

// Executor owns Config.Streams worker goroutines, each locked to its own OS
// thread and owning one stream, plus a stream per goroutine that calls
// Execute. Workers take tasks from a shared FIFO in submission order.
type Executor struct {
	cfg     Config
	log     zerolog.Logger
	metrics *control.Metrics
	manager *Manager

	topo          *topology.Snapshot
	usedNodes     []int
	coreTypeTable []coreTypeStreams
	infoRows      []int
	cpuMapMu      sync.Mutex

	ids     *concurrency.IDPool
	streams *registry
	queue   *concurrency.TaskQueue
	workers conc.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewExecutor validates cfg, probes the topology and starts cfg.Streams
// workers. Every worker has created its stream by the time it returns.
func NewExecutor(cfg Config, opts ...Option) (*Executor, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	if cfg.Name == "" {
		cfg.Name = "CPUStreamsExecutor-" + uuid.NewString()[:8]
	}

	base := log.Logger
	if o.logger != nil {
		base = *o.logger
	}
	prober := o.prober
	if prober == nil {
		prober = topology.System()
	}
	mgr := o.manager
	if mgr == nil {
		mgr = DefaultManager()
	}

	e := &Executor{
		cfg:     cfg,
		log:     base.With().Str("component", "streams").Str("executor", cfg.Name).Logger(),
		metrics: o.metrics,
		manager: mgr,
		topo:    topology.Probe(prober),
		ids:     concurrency.NewIDPool(),
		streams: newRegistry(),
		queue:   concurrency.NewTaskQueue(),
	}
	e.usedNodes = usedNUMANodes(cfg.Streams, e.topo.NUMANodes)
	e.infoRows = cfg.streamRows()
	if cfg.ThreadBindingType == BindHybridAware && len(cfg.StreamsInfo) == 0 {
		e.coreTypeTable = streamsOnCoreTypes(cfg, e.topo)
	}

	var ready sync.WaitGroup
	ready.Add(cfg.Streams)
	for i := 0; i < cfg.Streams; i++ {
		e.workers.Go(func() { e.worker(i, ready.Done) })
	}
	ready.Wait()

	mgr.register(e)
	e.log.Info().
		Int("streams", cfg.Streams).
		Int("threads_per_stream", cfg.ThreadsPerStream).
		Stringer("binding", cfg.ThreadBindingType).
		Bool("pinnable", e.pinnable()).
		Msg("executor started")
	return e, nil
}

// worker runs on its own OS thread until the queue stops. The thread is never
// unlocked, so any affinity set on it ends with the goroutine.
func (e *Executor) worker(index int, started func()) {
	runtime.LockOSThread()

	gid := concurrency.GoroutineID()
	s := e.newStream()
	s.worker = true
	e.streams.put(gid, s)
	defer func() {
		e.streams.remove(gid)
		s.retire()
	}()

	name := e.cfg.Name + "_" + strconv.Itoa(index)
	if err := concurrency.SetThreadName(name); err != nil {
		e.log.Debug().Err(err).Str("thread", name).Msg("thread name not set")
	}
	pprof.SetGoroutineLabels(pprof.WithLabels(context.Background(),
		pprof.Labels("executor", e.cfg.Name, "stream", strconv.Itoa(s.id))))
	started()

	for {
		task, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.metrics.SetQueueDepth(e.cfg.Name, e.queue.Len())
		s.setState(StreamActive)
		e.execute(s, task)
	}
}

// Run queues task for the next idle worker. Without workers it behaves like
// Execute. After Close the task is dropped.
func (e *Executor) Run(task api.Task) {
	if task == nil {
		return
	}
	if e.cfg.Streams == 0 {
		e.Execute(task)
		return
	}
	if e.closed.Load() {
		e.drop(1, "run after close")
		return
	}
	if err := e.queue.Push(concurrency.TaskFunc(task)); err != nil {
		e.drop(1, err.Error())
		return
	}
	e.metrics.Submitted(e.cfg.Name, control.PathQueued)
	e.metrics.SetQueueDepth(e.cfg.Name, e.queue.Len())
}

// Execute runs task on the calling goroutine within its stream. Execute
// called from a task that is itself running under Execute queues its task,
// which runs after the outer one returns, in submission order. Tasks taken
// from the shared queue by a worker do not count as running under Execute. A goroutine that is not a worker
// gets a stream for the outermost call only; it is retired once the deferred
// queue is empty. After Close the task is dropped.
func (e *Executor) Execute(task api.Task) {
	if task == nil {
		return
	}
	if e.closed.Load() {
		e.drop(1, "execute after close")
		return
	}
	gid := concurrency.GoroutineID()
	s, owned := e.localStream(gid)
	if s == nil {
		e.drop(1, "execute after close")
		return
	}
	e.metrics.Submitted(e.cfg.Name, control.PathDeferred)
	e.drain(s, concurrency.TaskFunc(task))
	if owned {
		e.streams.remove(gid)
		s.retire()
	}
}

// drain appends task to the stream's deferred queue and, unless an outer
// call is already draining it, runs the queue until it is empty.
func (e *Executor) drain(s *Stream, task concurrency.TaskFunc) {
	s.local.Push(task)
	if s.executing {
		return
	}
	s.executing = true
	s.setState(StreamActive)
	defer func() { s.executing = false }()
	for {
		next, ok := s.local.Pop()
		if !ok {
			return
		}
		e.execute(s, next)
	}
}

// execute runs one task inside the stream's arena. A panic is recovered,
// logged and counted; the stream keeps working.
func (e *Executor) execute(s *Stream, task concurrency.TaskFunc) {
	var pc panics.Catcher
	if s.arena != nil {
		pc.Try(func() { s.arena.Execute(task) })
	} else {
		pc.Try(task)
	}
	if r := pc.Recovered(); r != nil {
		e.log.Warn().
			Int("stream", s.id).
			Str("panic", fmt.Sprint(r.Value)).
			Str("stack", string(r.Stack)).
			Msg("task panicked")
		e.metrics.Finished(e.cfg.Name, true)
		return
	}
	e.metrics.Finished(e.cfg.Name, false)
}

func (e *Executor) drop(n int, reason string) {
	e.metrics.Dropped(e.cfg.Name, n)
	e.log.Debug().Int("tasks", n).Str("reason", reason).Msg("tasks dropped")
}

// localStream returns the stream of goroutine gid. owned reports that the
// stream was created by this call. It returns nil when the executor closed
// while the stream was being registered.
func (e *Executor) localStream(gid uint64) (s *Stream, owned bool) {
	if s := e.streams.get(gid); s != nil {
		return s, false
	}
	s = e.newStream()
	e.streams.put(gid, s)
	if e.closed.Load() {
		e.streams.remove(gid)
		s.retire()
		return nil, false
	}
	return s, true
}

// CurrentStream returns the caller's stream, or nil if it has none.
func (e *Executor) CurrentStream() *Stream {
	return e.streams.get(concurrency.GoroutineID())
}

// CurrentStreamID returns the caller's stream id. Callers without a stream,
// including goroutines outside Execute, get 0 and no stream is created.
func (e *Executor) CurrentStreamID() int {
	if s := e.CurrentStream(); s != nil {
		return s.id
	}
	return 0
}

// CurrentNUMANodeID returns the caller's stream NUMA node, 0 without a stream.
func (e *Executor) CurrentNUMANodeID() int {
	if s := e.CurrentStream(); s != nil {
		return s.numaNode
	}
	return 0
}

// Close stops the queue, drops every task still in it, waits for workers to
// finish their current task and retires all streams. Calling Close from a
// task running on one of the executor's workers returns without waiting.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if n := e.queue.Stop(); n > 0 {
			e.drop(n, "executor closed")
		}
		if s := e.CurrentStream(); s != nil && s.worker {
			go e.finishClose()
			return
		}
		e.finishClose()
	})
}

func (e *Executor) finishClose() {
	e.workers.Wait()
	for _, s := range e.streams.drain() {
		s.retire()
	}
	e.metrics.SetQueueDepth(e.cfg.Name, 0)
	e.manager.unregister(e)
	e.log.Info().Msg("executor closed")
}

// Name returns the executor name.
func (e *Executor) Name() string { return e.cfg.Name }

// Config returns a copy of the executor's normalized configuration.
func (e *Executor) Config() Config {
	c := e.cfg
	c.StreamsInfo = append([]StreamsInfo(nil), e.cfg.StreamsInfo...)
	if e.cfg.StreamCoreIDs != nil {
		c.StreamCoreIDs = make([][]int, len(e.cfg.StreamCoreIDs))
		for i, ids := range e.cfg.StreamCoreIDs {
			c.StreamCoreIDs[i] = append([]int(nil), ids...)
		}
	}
	return c
}

// Topology returns the host layout the executor was built against.
func (e *Executor) Topology() *topology.Snapshot { return e.topo }

// Closed reports whether Close has been called.
func (e *Executor) Closed() bool { return e.closed.Load() }

// Stats is a point-in-time view of an executor.
type Stats struct {
	Name        string `json:"name"`
	Streams     int    `json:"streams"`
	LiveStreams int    `json:"liveStreams"`
	HighWaterID int    `json:"highWaterId"`
	Queued      int    `json:"queued"`
	Closed      bool   `json:"closed"`
}

// Stats returns current counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Name:        e.cfg.Name,
		Streams:     e.cfg.Streams,
		LiveStreams: e.ids.Live(),
		HighWaterID: e.ids.HighWater(),
		Queued:      e.queue.Len(),
		Closed:      e.closed.Load(),
	}
}
