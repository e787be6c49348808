// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control exposes executor configuration and runtime state for operators.
type Control interface {
	// GetConfig returns the configuration of every live executor by name.
	GetConfig() map[string]any
	// Stats returns executor counters and debug probe output.
	Stats() map[string]any
	RegisterDebugProbe(name string, fn func() any)
}
