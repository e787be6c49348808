// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for streams executors.
//
// Provides concurrent-safe state handling primitives including:
//   - Prometheus collectors for task flow and stream population
//   - Debug probe registration and state export
//   - Host topology probes
package control
