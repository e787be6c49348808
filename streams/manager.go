// File: streams/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/control"
)

// Manager tracks live executors and hands out shared ones by configuration.
type Manager struct {
	createMu sync.Mutex

	mu        sync.Mutex
	executors []*Executor
	probes    *control.DebugProbes
	opts      []Option
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// DefaultManager returns the process-wide manager executors register with
// unless WithManager says otherwise.
func DefaultManager() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// NewManager returns an empty manager. opts apply to every executor created
// through GetStreamsExecutor.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		probes: control.NewDebugProbes(),
		opts:   opts,
	}
}

// Probes exposes the manager's debug registry. Each live executor publishes
// its Stats under "executor.<name>".
func (m *Manager) Probes() api.Debug {
	return m.probes
}

// GetStreamsExecutor returns a live executor whose configuration equals cfg,
// creating one if none exists. An empty cfg.Name matches any name. Executors
// that are closing are never handed out.
func (m *Manager) GetStreamsExecutor(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.createMu.Lock()
	defer m.createMu.Unlock()

	want := cfg.normalized()
	cmpOpts := []cmp.Option{cmpopts.EquateEmpty()}
	if want.Name == "" {
		cmpOpts = append(cmpOpts, cmpopts.IgnoreFields(Config{}, "Name"))
	}
	for _, e := range m.Executors() {
		if e.Closed() {
			continue
		}
		if cmp.Equal(want, e.cfg, cmpOpts...) {
			return e, nil
		}
	}

	opts := append(append([]Option(nil), m.opts...), WithManager(m))
	return NewExecutor(cfg, opts...)
}

// Executors returns the live executors in creation order.
func (m *Manager) Executors() []*Executor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Executor(nil), m.executors...)
}

// Lookup returns the first live executor named name.
func (m *Manager) Lookup(name string) (*Executor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.executors {
		if e.cfg.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Clear closes every executor named name, or all of them when name is empty.
func (m *Manager) Clear(name string) {
	for _, e := range m.Executors() {
		if name == "" || e.cfg.Name == name {
			e.Close()
		}
	}
}

// DumpState returns the output of every registered probe.
func (m *Manager) DumpState() map[string]any {
	return m.probes.DumpState()
}

func (m *Manager) register(e *Executor) {
	m.mu.Lock()
	m.executors = append(m.executors, e)
	m.mu.Unlock()
	m.probes.RegisterProbe(probeName(e), func() any { return e.Stats() })
}

func (m *Manager) unregister(e *Executor) {
	m.mu.Lock()
	for i, x := range m.executors {
		if x == e {
			m.executors = append(m.executors[:i], m.executors[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if other, ok := m.Lookup(e.cfg.Name); ok {
		m.probes.RegisterProbe(probeName(other), func() any { return other.Stats() })
		return
	}
	m.probes.UnregisterProbe(probeName(e))
}

func probeName(e *Executor) string {
	return "executor." + e.cfg.Name
}
