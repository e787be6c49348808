//go:build linux
// +build linux

// File: internal/concurrency/threadname_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxThreadName is the kernel's comm length without the terminator.
const maxThreadName = 15

// SetThreadName names the calling OS thread, as shown by ps and top.
// The caller must hold runtime.LockOSThread. Names are truncated to 15 bytes.
func SetThreadName(name string) error {
	if len(name) > maxThreadName {
		name = name[:maxThreadName]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	return unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(p)), 0, 0, 0)
}
