// File: internal/concurrency/idpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// IDPool hands out small integer ids, reusing released ids in FIFO order
// before allocating new ones, so live ids stay dense from zero.
type IDPool struct {
	mu   sync.Mutex
	next int
	free *queue.Queue
}

// NewIDPool returns a pool whose first id is 0.
func NewIDPool() *IDPool {
	return &IDPool{free: queue.New()}
}

// Acquire returns a released id if any, else the next unused integer.
func (p *IDPool) Acquire() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.free.Length() > 0 {
		return p.free.Remove().(int)
	}
	id := p.next
	p.next++
	return id
}

// Release returns id to the pool.
func (p *IDPool) Release(id int) {
	p.mu.Lock()
	p.free.Add(id)
	p.mu.Unlock()
}

// Live returns the number of ids currently handed out.
func (p *IDPool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next - p.free.Length()
}

// HighWater returns one past the largest id ever handed out.
func (p *IDPool) HighWater() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}
