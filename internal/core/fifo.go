package core

import (
	"sync"
)

// fifo is the dispatch queue carrying job IDs from submission to the worker.
// It is unbounded: Push never blocks and never drops. Pop blocks until an ID
// is available or the queue is closed and drained. Any number of producers
// may push concurrently; the single worker is the only consumer.
type fifo struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ids    []string
	closed bool
}

func newFIFO() *fifo {
	f := &fifo{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fifo) Push(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.ids = append(f.ids, id)
	f.cond.Signal()
}

// Pop returns the next ID in submission order. It reports false once the
// queue is closed and empty.
func (f *fifo) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.ids) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.ids) == 0 {
		return "", false
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, true
}

func (f *fifo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

func (f *fifo) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}
