//go:build !linux
// +build !linux

// File: internal/concurrency/threadname_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// SetThreadName is a no-op where threads cannot be renamed.
func SetThreadName(name string) error {
	return nil
}
