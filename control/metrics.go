// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for streams executors. Every series is labelled with
// the executor name. A nil *Metrics is valid and records nothing.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission paths.
const (
	PathQueued   = "queued"
	PathDeferred = "deferred"
)

// Metrics holds Prometheus collectors.
type Metrics struct {
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TasksDropped   *prometheus.CounterVec
	QueueDepth     *prometheus.GaugeVec
	LiveStreams    *prometheus.GaugeVec
	PinFailures    *prometheus.CounterVec
}

// NewMetrics creates the collectors without registering them.
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		TasksSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted, by path",
		}, []string{"executor", "path"}),
		TasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that returned normally",
		}, []string{"executor"}),
		TasksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that panicked",
		}, []string{"executor"}),
		TasksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_dropped_total",
			Help:      "Total number of tasks discarded at or after shutdown",
		}, []string{"executor"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Tasks waiting in the shared queue",
		}, []string{"executor"}),
		LiveStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_streams",
			Help:      "Streams currently holding an id",
		}, []string{"executor"}),
		PinFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pin_failures_total",
			Help:      "Thread pinning attempts that did not take effect",
		}, []string{"executor"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TasksSubmitted, m.TasksCompleted, m.TasksFailed, m.TasksDropped,
		m.QueueDepth, m.LiveStreams, m.PinFailures,
	}
}

// Submitted counts one task entering the executor through path.
func (m *Metrics) Submitted(executor, path string) {
	if m == nil {
		return
	}
	m.TasksSubmitted.WithLabelValues(executor, path).Inc()
}

// Finished counts one task leaving the executor, failed when it panicked.
func (m *Metrics) Finished(executor string, failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.TasksFailed.WithLabelValues(executor).Inc()
		return
	}
	m.TasksCompleted.WithLabelValues(executor).Inc()
}

// Dropped counts n tasks discarded without running.
func (m *Metrics) Dropped(executor string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TasksDropped.WithLabelValues(executor).Add(float64(n))
}

// SetQueueDepth records the shared queue length.
func (m *Metrics) SetQueueDepth(executor string, n int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(executor).Set(float64(n))
}

// SetLiveStreams records the number of live streams.
func (m *Metrics) SetLiveStreams(executor string, n int) {
	if m == nil {
		return
	}
	m.LiveStreams.WithLabelValues(executor).Set(float64(n))
}

// PinFailed counts one pinning attempt that did not take effect.
func (m *Metrics) PinFailed(executor string) {
	if m == nil {
		return
	}
	m.PinFailures.WithLabelValues(executor).Inc()
}
