package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/cpustreams/topology"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("cpustreams", "test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.Submitted("infer", PathQueued)
	m.Submitted("infer", PathQueued)
	m.Submitted("infer", PathDeferred)
	m.Finished("infer", false)
	m.Finished("infer", true)
	m.Dropped("infer", 3)
	m.Dropped("infer", 0)
	m.SetQueueDepth("infer", 5)
	m.SetLiveStreams("infer", 2)
	m.PinFailed("infer")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksSubmitted.WithLabelValues("infer", PathQueued)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksSubmitted.WithLabelValues("infer", PathDeferred)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksCompleted.WithLabelValues("infer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksFailed.WithLabelValues("infer")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TasksDropped.WithLabelValues("infer")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("infer")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LiveStreams.WithLabelValues("infer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PinFailures.WithLabelValues("infer")))

	assert.Error(t, m.Register(reg), "double registration must fail")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Submitted("x", PathQueued)
		m.Finished("x", true)
		m.Dropped("x", 1)
		m.SetQueueDepth("x", 1)
		m.SetLiveStreams("x", 1)
		m.PinFailed("x")
	})
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	RegisterPlatformProbes(dp, topology.NewStatic(topology.Layout{BigCores: 2, Pinnable: true}))

	state := dp.DumpState()
	assert.Equal(t, 42, state["answer"])
	assert.Equal(t, []int{0}, state["platform.numa_nodes"])
	assert.Equal(t, "0-1", state["platform.process_mask"])

	dp.UnregisterProbe("answer")
	_, ok := dp.DumpState()["answer"]
	assert.False(t, ok)
}
