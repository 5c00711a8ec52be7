package sectionrender

import (
	"sync"

	"chunkmesh/internal/crash"
	"chunkmesh/internal/profiling"

	"go.uber.org/multierr"
)

// Future is the pending result of an upload.
type Future struct {
	done chan struct{}
	err  error
}

func completedFuture(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Wait blocks until the upload ran and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Done is closed once the upload ran.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

func waitAll(futures []*Future) error {
	var err error
	for _, f := range futures {
		err = multierr.Append(err, f.Wait())
	}
	return err
}

// uploadQueue holds GPU mutations produced by workers until the render
// thread runs them. Uploads run in submission order.
type uploadQueue struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	signal  chan struct{}
}

func newUploadQueue() *uploadQueue {
	return &uploadQueue{signal: make(chan struct{}, 1)}
}

// submit queues fn and returns its future. Once the queue is closed fn is
// not run: discard is called instead and the future completes at once.
func (q *uploadQueue) submit(fn func() error, discard func()) *Future {
	f := &Future{done: make(chan struct{})}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		discard()
		close(f.done)
		return f
	}
	q.pending = append(q.pending, func() {
		defer close(f.done)
		defer func() {
			if err := crash.Recovered(recover()); err != nil {
				f.err = err
			}
		}()
		f.err = fn()
	})
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return f
}

// drain runs queued uploads until none are left and returns how many ran.
func (q *uploadQueue) drain() int {
	defer profiling.Track("sectionrender.Uploads")()
	n := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
		}
		n += len(batch)
	}
}

// close makes later submissions complete immediately and runs what is
// already queued.
func (q *uploadQueue) close() int {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.drain()
}

func (q *uploadQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
