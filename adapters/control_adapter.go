// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control over a streams.Manager.

package adapters

import (
	"github.com/momentics/cpustreams/api"
	"github.com/momentics/cpustreams/control"
	"github.com/momentics/cpustreams/streams"
	"github.com/momentics/cpustreams/topology"
)

type ControlAdapter struct {
	manager *streams.Manager
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter reports on m's executors and on the platform seen by p.
func NewControlAdapter(m *streams.Manager, p topology.Prober) *ControlAdapter {
	adapter := &ControlAdapter{
		manager: m,
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug, p)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	out := make(map[string]any)
	for _, e := range c.manager.Executors() {
		out[e.Name()] = e.Config()
	}
	return out
}

func (c *ControlAdapter) Stats() map[string]any {
	combined := make(map[string]any)
	for k, v := range c.manager.DumpState() {
		combined[k] = v
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}
