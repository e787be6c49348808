// File: streams/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streams

import "sync"

// registry maps goroutine ids to the stream that goroutine owns within one
// executor. It stands in for thread-local storage.
type registry struct {
	mu      sync.RWMutex
	streams map[uint64]*Stream
}

func newRegistry() *registry {
	return &registry{streams: make(map[uint64]*Stream)}
}

func (r *registry) get(gid uint64) *Stream {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.streams[gid]
}

func (r *registry) put(gid uint64, s *Stream) {
	r.mu.Lock()
	r.streams[gid] = s
	r.mu.Unlock()
}

func (r *registry) remove(gid uint64) *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.streams[gid]
	delete(r.streams, gid)
	return s
}

// drain empties the registry and returns what it held.
func (r *registry) drain() []*Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Stream, 0, len(r.streams))
	for gid, s := range r.streams {
		out = append(out, s)
		delete(r.streams, gid)
	}
	return out
}

// snapshot returns the registered streams without removing them.
func (r *registry) snapshot() []*Stream {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Stream, 0, len(r.streams))
	for _, s := range r.streams {
		out = append(out, s)
	}
	return out
}
