// Package api
// Author: momentics <momentics@gmail.com>
//
// Debug contract for executor and platform probes.

package api

// Debug is a registry of named probes. streams.Manager publishes one probe per
// live executor under "executor.<name>", and control.RegisterPlatformProbes
// adds host topology under "platform.*".
type Debug interface {
	// DumpState calls every probe and returns the results by probe name.
	DumpState() map[string]any

	// RegisterProbe adds or replaces the probe called name.
	RegisterProbe(name string, fn func() any)
}
