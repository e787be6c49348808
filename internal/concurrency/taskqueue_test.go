package concurrency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_FIFO(t *testing.T) {
	tq := NewTaskQueue()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, tq.Push(func() { order = append(order, i) }))
	}
	assert.Equal(t, 5, tq.Len())
	for i := 0; i < 5; i++ {
		task, ok := tq.Pop()
		require.True(t, ok)
		task()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTaskQueue_RejectsNil(t *testing.T) {
	assert.ErrorIs(t, NewTaskQueue().Push(nil), ErrNilTask)
}

func TestTaskQueue_StopDropsAndWakes(t *testing.T) {
	tq := NewTaskQueue()
	var wg sync.WaitGroup
	results := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := tq.Pop()
			results <- ok
		}()
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, tq.Stop())
	wg.Wait()
	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
	assert.True(t, tq.Stopped())
}

func TestTaskQueue_StopDiscardsPending(t *testing.T) {
	tq := NewTaskQueue()
	for i := 0; i < 3; i++ {
		require.NoError(t, tq.Push(func() { t.Error("dropped task ran") }))
	}
	assert.Equal(t, 3, tq.Stop())
	assert.Equal(t, 0, tq.Stop())
	assert.Equal(t, 0, tq.Len())

	_, ok := tq.Pop()
	assert.False(t, ok)
	assert.ErrorIs(t, tq.Push(func() {}), ErrQueueStopped)
}

func TestLocalQueue(t *testing.T) {
	lq := NewLocalQueue()
	_, ok := lq.Pop()
	assert.False(t, ok)

	n := 0
	lq.Push(func() { n = 1 })
	lq.Push(func() { n = 2 })
	assert.Equal(t, 2, lq.Len())
	task, _ := lq.Pop()
	task()
	assert.Equal(t, 1, n)
}
