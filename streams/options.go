// File: streams/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import (
	"github.com/rs/zerolog"

	"github.com/momentics/cpustreams/control"
	"github.com/momentics/cpustreams/topology"
)

// Option customizes an Executor or the executors a Manager creates.
type Option func(*options)

type options struct {
	logger  *zerolog.Logger
	metrics *control.Metrics
	prober  topology.Prober
	manager *Manager
}

// WithLogger sets the base logger; the executor adds its own fields.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithMetrics records task and stream counters into m.
func WithMetrics(m *control.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithProber replaces host topology detection.
func WithProber(p topology.Prober) Option {
	return func(o *options) { o.prober = p }
}

// WithManager registers the executor with m instead of DefaultManager.
func WithManager(m *Manager) Option {
	return func(o *options) { o.manager = m }
}
