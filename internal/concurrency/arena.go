// File: internal/concurrency/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Arena is a bounded-concurrency execution domain. At most Concurrency()
// goroutines run inside it at once, each holding a slot index in
// [0, Concurrency()). Goroutines are locked to their OS thread while inside,
// and an optional Observer is told about every entry and exit so it can pin
// the thread that now owns a slot.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Observer receives arena entry and exit events on the entering thread.
type Observer interface {
	// OnEnter is called after the thread took slot.
	OnEnter(slot int)
	// OnExit is called before the thread gives its slot back.
	OnExit()
}

// Arena limits how many goroutines execute inside it concurrently.
type Arena struct {
	limit int
	slots chan int

	mu       sync.RWMutex
	observer Observer

	holders sync.Map // goroutine id -> slot
	entries atomic.Int64
}

// NewArena creates an arena admitting limit goroutines; limit <= 0 means
// runtime.GOMAXPROCS(0).
func NewArena(limit int) *Arena {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	a := &Arena{limit: limit, slots: make(chan int, limit)}
	for i := 0; i < limit; i++ {
		a.slots <- i
	}
	return a
}

// Concurrency returns the arena's thread ceiling.
func (a *Arena) Concurrency() int {
	return a.limit
}

// Entries returns how many times a thread has entered the arena.
func (a *Arena) Entries() int64 {
	return a.entries.Load()
}

// SetObserver installs o, replacing any previous observer; nil detaches.
// Threads already inside keep the observer they entered with.
func (a *Arena) SetObserver(o Observer) {
	a.mu.Lock()
	a.observer = o
	a.mu.Unlock()
}

// CurrentSlot returns the slot held by the calling goroutine.
func (a *Arena) CurrentSlot() (int, bool) {
	v, ok := a.holders.Load(GoroutineID())
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Execute runs task on the calling goroutine inside the arena, blocking
// while every slot is taken. A goroutine already inside runs task directly.
// Panics from task propagate after the slot is released.
func (a *Arena) Execute(task func()) {
	gid := GoroutineID()
	if _, inside := a.holders.Load(gid); inside {
		task()
		return
	}
	a.run(gid, <-a.slots, task)
}

func (a *Arena) run(gid uint64, slot int, task func()) {
	runtime.LockOSThread()
	a.holders.Store(gid, slot)
	a.entries.Add(1)

	a.mu.RLock()
	o := a.observer
	a.mu.RUnlock()
	if o != nil {
		o.OnEnter(slot)
	}
	defer func() {
		if o != nil {
			o.OnExit()
		}
		a.holders.Delete(gid)
		runtime.UnlockOSThread()
		a.slots <- slot
	}()
	task()
}

// Parallel calls body(i) for every i in [0, n), spreading iterations over
// the calling goroutine and as many helper goroutines as free slots allow.
// Every helper enters the arena, so the observer fires for it. A panic in any
// iteration is re-raised on the caller once all helpers have finished.
func (a *Arena) Parallel(n int, body func(i int)) {
	if n <= 0 {
		return
	}
	if _, inside := a.holders.Load(GoroutineID()); !inside {
		a.Execute(func() { a.Parallel(n, body) })
		return
	}

	var next atomic.Int64
	loop := func() {
		for {
			i := int(next.Add(1) - 1)
			if i >= n {
				return
			}
			body(i)
		}
	}

	var wg conc.WaitGroup
	helpers := n - 1
	if helpers > a.limit-1 {
		helpers = a.limit - 1
	}
spawn:
	for h := 0; h < helpers; h++ {
		select {
		case slot := <-a.slots:
			wg.Go(func() {
				a.run(GoroutineID(), slot, loop)
			})
		default:
			break spawn
		}
	}

	var pc panics.Catcher
	pc.Try(loop)
	wg.Wait()
	pc.Repanic()
}
